package session

import "go.uber.org/zap"

// RegisterCompartment adds a compartment to the reset list. Compartments are reset in
// registration order.
func (c *Cache) RegisterCompartment(comp Compartment) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.compartments = append(c.compartments, comp)
}

// Compartments names the registered compartments, in reset order.
func (c *Cache) Compartments() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, len(c.compartments))
	for i, comp := range c.compartments {
		names[i] = comp.Name()
	}
	return names
}

func (c *Cache) resetCompartments() {
	c.mu.Lock()
	comps := append([]Compartment(nil), c.compartments...)
	c.mu.Unlock()

	for _, comp := range comps {
		comp.Reset()
		c.logger.Debug("compartment reset", zap.String("compartment", comp.Name()))
	}
}
