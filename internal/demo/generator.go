package demo

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"
)

// Personal is the personal details record as the server serves it.
type Personal struct {
	Name        string `json:"name"`
	Gender      string `json:"gender"`
	DateOfBirth string `json:"dateOfBirth"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
	City        string `json:"city"`
	ProfilePic  string `json:"profilepic,omitempty"`
}

// Work is the work details record as the server serves it.
type Work struct {
	Designation string `json:"designation"`
	Department  string `json:"department"`
	Supervisor  string `json:"supervisor"`
	WorkEmail   string `json:"workEmail"`
	WorkPhone   string `json:"workPhone"`
	JoinedOn    string `json:"joinedOn"`
}

// Employee is one entry in the demo directory.
type Employee struct {
	ID       string
	Personal Personal
	Work     Work
}

// Generator produces random employees using crypto/rand.
type Generator struct {
	now func() time.Time
}

// NewGenerator creates a generator.
func NewGenerator() *Generator {
	return &Generator{now: time.Now}
}

// Employee produces a random employee with the given id.
func (g *Generator) Employee(id string) Employee {
	first, last := pick(firstNames), pick(lastNames)
	handle := strings.ToLower(first + "." + last)

	return Employee{
		ID: id,
		Personal: Personal{
			Name:        first + " " + last,
			Gender:      pick(genders),
			DateOfBirth: g.dob().Format("2006-01-02"),
			Email:       fmt.Sprintf("%s%02d@mail.%s", handle, randIntn(100), emailDomain),
			Phone:       g.phone(),
			Address:     g.street(),
			City:        pick(cities),
		},
		Work: Work{
			Designation: pick(designations),
			Department:  pick(departments),
			Supervisor:  pick(firstNames) + " " + pick(lastNames),
			WorkEmail:   handle + "@" + emailDomain,
			WorkPhone:   g.phone(),
			JoinedOn:    g.joined().Format("2006-01-02"),
		},
	}
}

// Directory produces n employees with ids E100, E101, ...
func (g *Generator) Directory(n int) []Employee {
	out := make([]Employee, n)
	for i := range n {
		out[i] = g.Employee(fmt.Sprintf("E%03d", 100+i))
	}
	return out
}

// phone generates a fictional number: +1 555 XXX XXXX.
func (g *Generator) phone() string {
	return fmt.Sprintf("+1 555 %03d %04d", 100+randIntn(900), randIntn(10000))
}

// street generates an address like "42 Temple Road".
func (g *Generator) street() string {
	return fmt.Sprintf("%d %s %s", 1+randIntn(300), pick(streetNames), pick(streetSuffixes))
}

// dob generates a date of birth between 21 and 60 years ago.
func (g *Generator) dob() time.Time {
	age := 21 + randIntn(40)
	base := g.now().AddDate(-age, 0, 0)
	return base.AddDate(0, 0, -randIntn(365)).Truncate(24 * time.Hour)
}

// joined generates a start date within the last ten years.
func (g *Generator) joined() time.Time {
	return g.now().AddDate(0, 0, -randIntn(3650)).Truncate(24 * time.Hour)
}

func pick(s []string) string {
	return s[randIntn(len(s))]
}

// randIntn returns a cryptographically random int in [0, n).
func randIntn(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		// crypto/rand failure is unrecoverable
		panic("crypto/rand: " + err.Error())
	}
	return int(v.Int64())
}
