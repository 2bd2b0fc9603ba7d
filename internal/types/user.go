package types

// User is the identity held in a session. Both fields are kept exactly as
// submitted on the login form.
type User struct {
	ID        string
	FirstName string
}

// DefaultFirstName stands in for a login form that carried no first_name
// field at all. A submitted empty value is kept as it is.
const DefaultFirstName = "User"

func NewUser(id, firstName string) *User {
	return &User{ID: id, FirstName: firstName}
}

func (u *User) GetID() string {
	return u.ID
}

func (u *User) GetFirstName() string {
	return u.FirstName
}
