package campus

import (
	"bytes"

	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/adfharrison1/go-campus/pkg/domain"
)

// Course is a catalogue course offering.
type Course struct {
	ID         int    `json:"id" msgpack:"id"`
	Code       string `json:"code" msgpack:"code"`
	Title      string `json:"title" msgpack:"title"`
	Department string `json:"department" msgpack:"department"`
	Instructor string `json:"instructor" msgpack:"instructor"`
	Semester   int    `json:"semester" msgpack:"semester"`
	Credits    int    `json:"credits" msgpack:"credits"`
}

var courseColumns = []string{"id", "code", "title", "department", "instructor", "semester", "credits"}

func (c Course) Fields() []string { return append([]string(nil), courseColumns...) }

func (c Course) Field(name string) (interface{}, bool) {
	switch name {
	case "id":
		return c.ID, true
	case "code":
		return c.Code, true
	case "title":
		return c.Title, true
	case "department":
		return c.Department, true
	case "instructor":
		return c.Instructor, true
	case "semester":
		return c.Semester, true
	case "credits":
		return c.Credits, true
	}
	return nil, false
}

// FeeEntry is one line of a student's fee statement.
type FeeEntry struct {
	ID          string  `json:"id" msgpack:"id"`
	Term        string  `json:"term" msgpack:"term"`
	Description string  `json:"description" msgpack:"description"`
	Amount      float64 `json:"amount" msgpack:"amount"`
	DueDate     string  `json:"due_date" msgpack:"due_date"`
	Status      string  `json:"status" msgpack:"status"`
}

var feeColumns = []string{"id", "term", "description", "amount", "due_date", "status"}

func (f FeeEntry) Fields() []string { return append([]string(nil), feeColumns...) }

func (f FeeEntry) Field(name string) (interface{}, bool) {
	switch name {
	case "id":
		return f.ID, true
	case "term":
		return f.Term, true
	case "description":
		return f.Description, true
	case "amount":
		return f.Amount, true
	case "due_date":
		return f.DueDate, true
	case "status":
		return f.Status, true
	}
	return nil, false
}

// Book is a library holding.
type Book struct {
	ID        int    `json:"id" msgpack:"id"`
	Title     string `json:"title" msgpack:"title"`
	Author    string `json:"author" msgpack:"author"`
	ISBN      string `json:"isbn" msgpack:"isbn"`
	Category  string `json:"category" msgpack:"category"`
	Available bool   `json:"available" msgpack:"available"`
	DueDate   string `json:"due_date,omitempty" msgpack:"due_date"`
}

var bookColumns = []string{"id", "title", "author", "isbn", "category", "available", "due_date"}

func (b Book) Fields() []string { return append([]string(nil), bookColumns...) }

func (b Book) Field(name string) (interface{}, bool) {
	switch name {
	case "id":
		return b.ID, true
	case "title":
		return b.Title, true
	case "author":
		return b.Author, true
	case "isbn":
		return b.ISBN, true
	case "category":
		return b.Category, true
	case "available":
		return b.Available, true
	case "due_date":
		if b.DueDate == "" {
			return nil, false
		}
		return b.DueDate, true
	}
	return nil, false
}

// ExamResult is a mark obtained in one examination.
type ExamResult struct {
	ID          int     `json:"id" msgpack:"id"`
	CourseCode  string  `json:"course_code" msgpack:"course_code"`
	CourseTitle string  `json:"course_title" msgpack:"course_title"`
	Exam        string  `json:"exam" msgpack:"exam"`
	Semester    int     `json:"semester" msgpack:"semester"`
	Marks       float64 `json:"marks" msgpack:"marks"`
	MaxMarks    float64 `json:"max_marks" msgpack:"max_marks"`
	Grade       string  `json:"grade" msgpack:"grade"`
}

var examColumns = []string{"id", "course_code", "course_title", "exam", "semester", "marks", "max_marks", "grade"}

func (e ExamResult) Fields() []string { return append([]string(nil), examColumns...) }

func (e ExamResult) Field(name string) (interface{}, bool) {
	switch name {
	case "id":
		return e.ID, true
	case "course_code":
		return e.CourseCode, true
	case "course_title":
		return e.CourseTitle, true
	case "exam":
		return e.Exam, true
	case "semester":
		return e.Semester, true
	case "marks":
		return e.Marks, true
	case "max_marks":
		return e.MaxMarks, true
	case "grade":
		return e.Grade, true
	}
	return nil, false
}

// Percentage is Marks over MaxMarks, or 0 when MaxMarks is not set.
func (e ExamResult) Percentage() float64 {
	if e.MaxMarks <= 0 {
		return 0
	}
	return e.Marks * 100 / e.MaxMarks
}

// TimetableSlot is one weekly teaching slot.
type TimetableSlot struct {
	ID         int    `json:"id" msgpack:"id"`
	Day        string `json:"day" msgpack:"day"`
	Start      string `json:"start" msgpack:"start"`
	End        string `json:"end" msgpack:"end"`
	CourseCode string `json:"course_code" msgpack:"course_code"`
	Room       string `json:"room" msgpack:"room"`
	Instructor string `json:"instructor" msgpack:"instructor"`
}

var slotColumns = []string{"id", "day", "start", "end", "course_code", "room", "instructor"}

func (s TimetableSlot) Fields() []string { return append([]string(nil), slotColumns...) }

func (s TimetableSlot) Field(name string) (interface{}, bool) {
	switch name {
	case "id":
		return s.ID, true
	case "day":
		return s.Day, true
	case "start":
		return s.Start, true
	case "end":
		return s.End, true
	case "course_code":
		return s.CourseCode, true
	case "room":
		return s.Room, true
	case "instructor":
		return s.Instructor, true
	}
	return nil, false
}

// Decode converts generic records into typed rows through their msgpack tags.
// Unknown fields are ignored; a value of the wrong kind is an error.
func Decode[R any](records []domain.Record) ([]R, error) {
	rows := make([]R, 0, len(records))
	for i, rec := range records {
		raw, err := msgpack.Marshal(rec)
		if err != nil {
			return nil, errors.Wrapf(err, "record %d", i+1)
		}
		var row R
		dec := msgpack.NewDecoder(bytes.NewReader(raw))
		if err := dec.Decode(&row); err != nil {
			return nil, errors.Wrapf(err, "record %d", i+1)
		}
		rows = append(rows, row)
	}
	return rows, nil
}
