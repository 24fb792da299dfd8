package models

// PrincipalKind separates the two disjoint account tables
type PrincipalKind string

const (
	PrincipalStudent PrincipalKind = "student"
	PrincipalWorker  PrincipalKind = "worker"
)

// WorkerRole defines what a staff account may do
type WorkerRole string

const (
	RoleWorker WorkerRole = "worker"
	RoleAdmin  WorkerRole = "admin"
)

// Valid reports whether r is a known worker role
func (r WorkerRole) Valid() bool {
	return r == RoleWorker || r == RoleAdmin
}
