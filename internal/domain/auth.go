package domain

// Session binds a login to the user it authenticated. The user value is
// a copy taken at login time.
type Session struct {
	ID   string
	User User
}
