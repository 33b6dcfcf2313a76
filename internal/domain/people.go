package domain

import (
	"time"

	"github.com/shopspring/decimal"

	"tutorhub.io/tutorhub/internal/mapping"
)

// Teacher is a tutor employed by the center.
type Teacher struct {
	ID         int64               `json:"id"`
	Name       string              `json:"name"`
	Email      string              `json:"email,omitempty"`
	Phone      string              `json:"phone,omitempty"`
	HourlyRate decimal.NullDecimal `json:"hourly_rate"`
	Subjects   mapping.StringList  `json:"subjects,omitempty"`
}

var (
	TeacherSchema = mapping.MustSchema("Teacher",
		mapping.IDField("id", func(t *Teacher) *int64 { return &t.ID }).MustBuild(),
		mapping.TextField("name", func(t *Teacher) *string { return &t.Name }).Mandatory().MustBuild(),
		mapping.TextField("email", func(t *Teacher) *string { return &t.Email }).MustBuild(),
		mapping.TextField("phone", func(t *Teacher) *string { return &t.Phone }).MustBuild(),
		mapping.DecimalField("hourlyRate", func(t *Teacher) *decimal.NullDecimal { return &t.HourlyRate }).
			Column("hourly_rate").MustBuild(),
		mapping.TextListField("subjects", func(t *Teacher) *mapping.StringList { return &t.Subjects }).MustBuild(),
	)
	TeacherUpdateSchema = TeacherSchema.MustWithMandatory("id")
)

func (t Teacher) String() string { return TeacherSchema.Map(t).String() }
func (t Teacher) Equal(o Teacher) bool { return TeacherSchema.Equal(t, o) }

// Customer is the paying party, usually a parent. Customers own students.
type Customer struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email,omitempty"`
	Comment string `json:"comment,omitempty"`
}

var (
	CustomerSchema = mapping.MustSchema("Customer",
		mapping.IDField("id", func(c *Customer) *int64 { return &c.ID }).MustBuild(),
		mapping.TextField("name", func(c *Customer) *string { return &c.Name }).Mandatory().MustBuild(),
		mapping.TextField("phone", func(c *Customer) *string { return &c.Phone }).Mandatory().MustBuild(),
		mapping.TextField("email", func(c *Customer) *string { return &c.Email }).MustBuild(),
		mapping.TextField("comment", func(c *Customer) *string { return &c.Comment }).MustBuild(),
	)
	CustomerUpdateSchema = CustomerSchema.MustWithMandatory("id")
)

func (c Customer) String() string { return CustomerSchema.Map(c).String() }
func (c Customer) Equal(o Customer) bool { return CustomerSchema.Equal(c, o) }

// Student attends one group and is paid for by one customer.
type Student struct {
	ID         int64      `json:"id"`
	CustomerID int64      `json:"customer_id"`
	GroupID    int64      `json:"group_id"`
	Name       string     `json:"name"`
	Email      string     `json:"email,omitempty"`
	Phone      string     `json:"phone,omitempty"`
	BirthDate  *time.Time `json:"birth_date,omitempty"`
}

var (
	StudentSchema = mapping.MustSchema("Student",
		mapping.IDField("id", func(s *Student) *int64 { return &s.ID }).MustBuild(),
		mapping.IntField("customerId", func(s *Student) *int64 { return &s.CustomerID }).
			Column("customer_id").Mandatory().MustBuild(),
		mapping.IntField("groupId", func(s *Student) *int64 { return &s.GroupID }).
			Column("group_id").Mandatory().MustBuild(),
		mapping.TextField("name", func(s *Student) *string { return &s.Name }).Mandatory().MustBuild(),
		mapping.TextField("email", func(s *Student) *string { return &s.Email }).MustBuild(),
		mapping.TextField("phone", func(s *Student) *string { return &s.Phone }).MustBuild(),
		mapping.DateField("birthDate", func(s *Student) **time.Time { return &s.BirthDate }).
			Column("birth_date").MustBuild(),
	)
	StudentUpdateSchema = StudentSchema.MustWithMandatory("id")
)

func (s Student) String() string { return StudentSchema.Map(s).String() }
func (s Student) Equal(o Student) bool { return StudentSchema.Equal(s, o) }

// Account is a login of one partition. Usernames are unique across all
// partitions because the partition is resolved from the username at login.
type Account struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
	Email        string `json:"email,omitempty"`
	DisplayName  string `json:"display_name,omitempty"`
}

var (
	AccountSchema = mapping.MustSchema("Account",
		mapping.IDField("id", func(a *Account) *int64 { return &a.ID }).MustBuild(),
		mapping.TextField("username", func(a *Account) *string { return &a.Username }).Mandatory().MustBuild(),
		mapping.TextField("passwordHash", func(a *Account) *string { return &a.PasswordHash }).
			Column("password_hash").Mandatory().MustBuild(),
		mapping.TextField("email", func(a *Account) *string { return &a.Email }).MustBuild(),
		mapping.TextField("displayName", func(a *Account) *string { return &a.DisplayName }).
			Column("display_name").MustBuild(),
	)
	AccountUpdateSchema = AccountSchema.MustWithMandatory("id")
)

// String omits the password hash.
func (a Account) String() string {
	a.PasswordHash = ""
	return AccountSchema.Map(a).String()
}

func (a Account) Equal(o Account) bool { return AccountSchema.Equal(a, o) }
