// Package inventory serves a tenant's keys, lockboxes and other tracked
// items along with the staff who check them out. Handlers never see a
// database handle: every read and write goes through the tenantdb facade,
// so a request can only reach the database of the tenant its host resolved
// to.
//
// Staff PINs are stored as bcrypt hashes. Creates are bounded by the
// tenant's quotas, counted in the tenant's own database.
package inventory
