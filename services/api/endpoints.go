package api

// Paths of the upstream storefront services.
const (
	PathLogin          = "/api/v1/auth/login"
	PathRegister       = "/api/v1/auth/register"
	PathLogout         = "/api/v1/auth/logout"
	PathRefresh        = "/api/v1/auth/refresh"
	PathProfile        = "/api/v1/auth/profile"
	PathForgotPassword = "/api/v1/auth/forgot-password"
	PathResetPassword  = "/api/v1/auth/reset-password"

	PathBookings      = "/api/v1/bookings"
	PathValidatePromo = "/api/v1/bookings/validate-promo"
)

func bookingPath(id string) string {
	return PathBookings + "/" + id
}

func cancelBookingPath(id string) string {
	return bookingPath(id) + "/cancel"
}
