package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"tutorhub.io/tutorhub/internal/domain"
	"tutorhub.io/tutorhub/internal/mapping"
	"tutorhub.io/tutorhub/internal/repository"
	"tutorhub.io/tutorhub/internal/service"
)

// fixture is the YAML seed document: one partition with its first account
// and a school's worth of rows. Rows refer to each other by key.
type fixture struct {
	Partition  string              `yaml:"partition"`
	Account    fixtureAccount      `yaml:"account"`
	Teachers   []fixtureTeacher    `yaml:"teachers"`
	Groups     []fixtureGroup      `yaml:"groups"`
	Customers  []fixtureCustomer   `yaml:"customers"`
	Students   []fixtureStudent    `yaml:"students"`
	Lessons    []fixtureLesson     `yaml:"lessons"`
	Attendance []fixtureAttendance `yaml:"attendance"`
}

type fixtureAccount struct {
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	Email       string `yaml:"email"`
	DisplayName string `yaml:"display_name"`
}

type fixtureTeacher struct {
	Key        string   `yaml:"key"`
	Name       string   `yaml:"name"`
	Email      string   `yaml:"email"`
	Phone      string   `yaml:"phone"`
	HourlyRate string   `yaml:"hourly_rate"`
	Subjects   []string `yaml:"subjects"`
}

type fixtureGroup struct {
	Key         string `yaml:"key"`
	Name        string `yaml:"name"`
	Teacher     string `yaml:"teacher"`
	Subject     string `yaml:"subject"`
	LessonPrice string `yaml:"lesson_price"`
}

type fixtureCustomer struct {
	Key     string `yaml:"key"`
	Name    string `yaml:"name"`
	Phone   string `yaml:"phone"`
	Email   string `yaml:"email"`
	Comment string `yaml:"comment"`
}

type fixtureStudent struct {
	Key       string `yaml:"key"`
	Name      string `yaml:"name"`
	Customer  string `yaml:"customer"`
	Group     string `yaml:"group"`
	Email     string `yaml:"email"`
	Phone     string `yaml:"phone"`
	BirthDate string `yaml:"birth_date"`
}

type fixtureLesson struct {
	Key             string `yaml:"key"`
	Group           string `yaml:"group"`
	StartsAt        string `yaml:"starts_at"`
	DurationMinutes int64  `yaml:"duration_minutes"`
	Topic           string `yaml:"topic"`
}

type fixtureAttendance struct {
	Lesson  string `yaml:"lesson"`
	Student string `yaml:"student"`
	Note    string `yaml:"note"`
}

// decodeFixture reads one YAML document; unknown keys are rejected.
func decodeFixture(r io.Reader) (*fixture, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var fx fixture
	if err := dec.Decode(&fx); err != nil {
		return nil, fmt.Errorf("decode fixture: %w", err)
	}
	return &fx, nil
}

// summary counts the rows created per entity.
type summary struct {
	Partition domain.Partition
	Created   map[string]int
}

// keys maps fixture keys of one entity to assigned ids.
type keys map[string]int64

func (k keys) resolve(entity, key string) (int64, error) {
	id, ok := k[key]
	if !ok {
		return 0, fmt.Errorf("%s %q is not defined earlier in the fixture", entity, key)
	}
	return id, nil
}

func (k keys) add(entity, key string, id int64) error {
	if key == "" {
		return nil
	}
	if _, dup := k[key]; dup {
		return fmt.Errorf("duplicate %s key %q", entity, key)
	}
	k[key] = id
	return nil
}

func optionalDecimal(field, s string) (decimal.NullDecimal, error) {
	if s == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("%s: %w", field, err)
	}
	return decimal.NewNullDecimal(d), nil
}

// applyAtomic runs apply in one transaction: a failing fixture leaves no
// partition, account or row behind. build wires services over the
// transaction-bound client.
func applyAtomic(ctx context.Context, client *repository.Client, build func(*repository.Client) *service.Services, fx *fixture) (summary, error) {
	var sum summary
	err := client.Atomic(ctx, func(tx *repository.Client) error {
		var err error
		sum, err = apply(ctx, build(tx), fx)
		return err
	})
	if err != nil {
		return summary{}, err
	}
	return sum, nil
}

// apply registers the partition and creates every row through the services,
// so the same validation as the API applies. It stops at the first failure.
func apply(ctx context.Context, svc *service.Services, fx *fixture) (summary, error) {
	_, p, err := svc.Accounts.Register(ctx, service.Registration{
		PartitionName: fx.Partition,
		Account: service.AccountInput{
			Username:    fx.Account.Username,
			Password:    fx.Account.Password,
			Email:       fx.Account.Email,
			DisplayName: fx.Account.DisplayName,
		},
	})
	if err != nil {
		return summary{}, fmt.Errorf("register partition: %w", err)
	}
	sum := summary{Partition: p, Created: map[string]int{"Account": 1}}

	teachers := keys{}
	for _, in := range fx.Teachers {
		rate, err := optionalDecimal("hourly_rate", in.HourlyRate)
		if err != nil {
			return sum, fmt.Errorf("teacher %q: %w", in.Key, err)
		}
		t, err := svc.Teachers.Create(ctx, p, domain.Teacher{
			Name:       in.Name,
			Email:      in.Email,
			Phone:      in.Phone,
			HourlyRate: rate,
			Subjects:   mapping.StringList(in.Subjects),
		})
		if err != nil {
			return sum, fmt.Errorf("teacher %q: %w", in.Key, err)
		}
		if err := teachers.add("teacher", in.Key, t.ID); err != nil {
			return sum, err
		}
		sum.Created["Teacher"]++
	}

	groups := keys{}
	for _, in := range fx.Groups {
		teacherID, err := teachers.resolve("teacher", in.Teacher)
		if err != nil {
			return sum, fmt.Errorf("group %q: %w", in.Key, err)
		}
		price, err := optionalDecimal("lesson_price", in.LessonPrice)
		if err != nil {
			return sum, fmt.Errorf("group %q: %w", in.Key, err)
		}
		g, err := svc.Groups.Create(ctx, p, domain.Group{
			Name:        in.Name,
			TeacherID:   teacherID,
			Subject:     in.Subject,
			LessonPrice: price,
		})
		if err != nil {
			return sum, fmt.Errorf("group %q: %w", in.Key, err)
		}
		if err := groups.add("group", in.Key, g.ID); err != nil {
			return sum, err
		}
		sum.Created["Group"]++
	}

	customers := keys{}
	for _, in := range fx.Customers {
		c, err := svc.Customers.Create(ctx, p, domain.Customer{
			Name:    in.Name,
			Phone:   in.Phone,
			Email:   in.Email,
			Comment: in.Comment,
		})
		if err != nil {
			return sum, fmt.Errorf("customer %q: %w", in.Key, err)
		}
		if err := customers.add("customer", in.Key, c.ID); err != nil {
			return sum, err
		}
		sum.Created["Customer"]++
	}

	students := keys{}
	for _, in := range fx.Students {
		st := domain.Student{Name: in.Name, Email: in.Email, Phone: in.Phone}
		if st.CustomerID, err = customers.resolve("customer", in.Customer); err != nil {
			return sum, fmt.Errorf("student %q: %w", in.Key, err)
		}
		if st.GroupID, err = groups.resolve("group", in.Group); err != nil {
			return sum, fmt.Errorf("student %q: %w", in.Key, err)
		}
		if in.BirthDate != "" {
			d, err := time.Parse(time.DateOnly, in.BirthDate)
			if err != nil {
				return sum, fmt.Errorf("student %q: birth_date: %w", in.Key, err)
			}
			st.BirthDate = &d
		}
		created, err := svc.Students.Create(ctx, p, st)
		if err != nil {
			return sum, fmt.Errorf("student %q: %w", in.Key, err)
		}
		if err := students.add("student", in.Key, created.ID); err != nil {
			return sum, err
		}
		sum.Created["Student"]++
	}

	lessons := keys{}
	for _, in := range fx.Lessons {
		groupID, err := groups.resolve("group", in.Group)
		if err != nil {
			return sum, fmt.Errorf("lesson %q: %w", in.Key, err)
		}
		startsAt, err := time.Parse(time.RFC3339, in.StartsAt)
		if err != nil {
			return sum, fmt.Errorf("lesson %q: starts_at: %w", in.Key, err)
		}
		l, err := svc.Lessons.Create(ctx, p, domain.Lesson{
			GroupID:         groupID,
			StartsAt:        startsAt,
			DurationMinutes: in.DurationMinutes,
			Topic:           in.Topic,
		})
		if err != nil {
			return sum, fmt.Errorf("lesson %q: %w", in.Key, err)
		}
		if err := lessons.add("lesson", in.Key, l.ID); err != nil {
			return sum, err
		}
		sum.Created["Lesson"]++
	}

	for _, in := range fx.Attendance {
		lessonID, err := lessons.resolve("lesson", in.Lesson)
		if err != nil {
			return sum, fmt.Errorf("attendance: %w", err)
		}
		studentID, err := students.resolve("student", in.Student)
		if err != nil {
			return sum, fmt.Errorf("attendance: %w", err)
		}
		if _, err := svc.Attendance.Record(ctx, p, domain.Attendance{
			LessonID:  lessonID,
			StudentID: studentID,
			Note:      in.Note,
		}); err != nil {
			return sum, fmt.Errorf("attendance %s/%s: %w", in.Lesson, in.Student, err)
		}
		sum.Created["Attendance"]++
	}
	return sum, nil
}
