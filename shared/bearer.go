package shared

// BearerToken pulls the opaque token out of an Authorization header. The
// scheme comparison is case-sensitive on purpose; clients send "Bearer "
// verbatim and anything else is treated as absent.
func BearerToken(authHeader string) string {
	if len(authHeader) < 7 || authHeader[:7] != "Bearer " {
		return ""
	}
	return authHeader[7:]
}
