package model

type Customer struct {
	ID         int64
	ChatID     int64
	FirstName  string
	LastName   string
	Patronymic string
	Address    string
	Phone      string
	Email      string
}

func (c Customer) FullName() string {
	return joinName(c.LastName, c.FirstName, c.Patronymic)
}

type ProfileField string

const (
	FieldFirstName  ProfileField = "first_name"
	FieldLastName   ProfileField = "last_name"
	FieldPatronymic ProfileField = "patronymic"
	FieldAddress    ProfileField = "address"
	FieldPhone      ProfileField = "phone"
	FieldEmail      ProfileField = "email"
)

// ProfileFields is the order in which a missing profile is collected.
var ProfileFields = []ProfileField{FieldFirstName, FieldLastName, FieldPatronymic, FieldAddress, FieldPhone, FieldEmail}

func (c Customer) Field(f ProfileField) string {
	switch f {
	case FieldFirstName:
		return c.FirstName
	case FieldLastName:
		return c.LastName
	case FieldPatronymic:
		return c.Patronymic
	case FieldAddress:
		return c.Address
	case FieldPhone:
		return c.Phone
	case FieldEmail:
		return c.Email
	}
	return ""
}

func (c *Customer) SetField(f ProfileField, v string) {
	switch f {
	case FieldFirstName:
		c.FirstName = v
	case FieldLastName:
		c.LastName = v
	case FieldPatronymic:
		c.Patronymic = v
	case FieldAddress:
		c.Address = v
	case FieldPhone:
		c.Phone = v
	case FieldEmail:
		c.Email = v
	}
}
