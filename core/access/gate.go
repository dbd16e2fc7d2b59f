package access

// PublicAPIEnabled reports whether the public read endpoints are switched
// on. Unlike Authorize this fails open: an unreadable store or a missing
// row means enabled, so the public API works before settings are
// provisioned. The two defaults are intentionally asymmetric.
func (r *Resolver) PublicAPIEnabled() bool {
	settings, err := r.settings.GetSettings()
	if err != nil || settings == nil {
		return true
	}
	return settings.APIEnabled
}
