package access

// Authorize validates a claimed admin secret. It fails closed: an empty
// claim, an unconfigured system, or any mismatch all reject. The comparison
// is byte-for-byte, with no trimming or case folding.
func (r *Resolver) Authorize(claimed string) bool {
	if claimed == "" {
		return false
	}
	secret := r.AdminSecret()
	if secret.Source == SourceUnconfigured {
		return false
	}
	return claimed == secret.Value
}
