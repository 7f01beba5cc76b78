package seeder

// environmentPermitted implements the environment gate. An absent allow-list
// permits every environment; otherwise the current environment identifier
// must be a member. Comparison is exact, no normalization.
func environmentPermitted(allowed []string, environment string) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, env := range allowed {
		if env == environment {
			return true
		}
	}
	return false
}
