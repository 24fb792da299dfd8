package services

// Services groups the application services handed to the controllers
type Services struct {
	Auth      *AuthService
	Requests  *RequestService
	Lifecycle *LifecycleService
	Admin     *AdminService
}
