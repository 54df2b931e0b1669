// Package accounts serves the control-plane API on the bare base domain:
// public signup and subdomain availability, and the tenant administration
// endpoints restricted to the privileged role.
package accounts
