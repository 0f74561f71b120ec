package result

import (
	"fmt"
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/academic"
)

const DefaultPassPercentage = 50.0

// Grade bands, lower bound inclusive.
var gradeBands = []struct {
	min   float64
	grade string
}{
	{90, "A+"},
	{80, "A"},
	{70, "B+"},
	{60, "B"},
	{50, "C"},
}

// Grade maps a percentage to its letter grade: >=90 A+, >=80 A, >=70 B+, >=60 B, >=50 C, else F.
func Grade(percentage float64) string {
	for _, b := range gradeBands {
		if percentage >= b.min {
			return b.grade
		}
	}
	return "F"
}

// Policy holds the pass rules of a school.
type Policy struct {
	PassPercentage float64
}

func (p Policy) threshold() float64 {
	if p.PassPercentage <= 0 {
		return DefaultPassPercentage
	}
	return p.PassPercentage
}

type Subject struct {
	BookID     string  `json:"book_id"`
	BookName   string  `json:"book_name"`
	TotalMarks int     `json:"total_marks"`
	Obtained   float64 `json:"obtained"`
	Percentage float64 `json:"percentage"`
	Grade      string  `json:"grade"`
	Passed     bool    `json:"passed"`
}

type Result struct {
	StudentID         string    `json:"student_id"`
	StudentName       string    `json:"student_name"`
	ClassID           string    `json:"class_id"`
	TermID            string    `json:"term_id"`
	TotalMarks        int       `json:"total_marks"`
	Obtained          float64   `json:"obtained"`
	Percentage        float64   `json:"percentage"` // unrounded, used for grading and ranking
	DisplayPercentage string    `json:"display_percentage"`
	Grade             string    `json:"grade"`
	Passed            bool      `json:"passed"`
	Position          int       `json:"position"` // 0 until ranked
	Subjects          []Subject `json:"subjects"`
	Skipped           int       `json:"skipped"`
}

func (r Result) Status() string {
	if r.Passed {
		return "Pass"
	}
	return "Fail"
}

// Compute derives the result of one student from their marks.
// Marks of unknown books, negative marks, marks above the book total and repeated (book, term) marks are skipped.
// Pass requires the overall and every subject percentage to reach the policy threshold.
func Compute(marks []Mark, books map[string]academic.Book, policy Policy) Result {
	var res Result
	res.Subjects = []Subject{}
	seen := make(map[string]bool, len(marks))

	for _, m := range marks {
		book, ok := books[m.BookID]
		if !ok || book.TotalMarks <= 0 || m.Marks < 0 || m.Marks > float64(book.TotalMarks) || seen[m.key()] {
			res.Skipped++
			continue
		}
		seen[m.key()] = true

		if res.StudentID == "" {
			res.StudentID, res.ClassID, res.TermID = m.StudentID, m.ClassID, m.TermID
		}
		pct := core.Percent(m.Marks, float64(book.TotalMarks))
		res.Subjects = append(res.Subjects, Subject{
			BookID:     book.ID,
			BookName:   book.Name,
			TotalMarks: book.TotalMarks,
			Obtained:   m.Marks,
			Percentage: core.Round(pct, 2),
			Grade:      Grade(pct),
			Passed:     pct >= policy.threshold(),
		})
		res.TotalMarks += book.TotalMarks
		res.Obtained += m.Marks
	}

	res.Percentage = core.Percent(res.Obtained, float64(res.TotalMarks))
	res.DisplayPercentage = fmt.Sprintf("%.2f", res.Percentage)
	res.Grade = Grade(res.Percentage)
	res.Passed = len(res.Subjects) > 0 && res.Percentage >= policy.threshold()
	for _, s := range res.Subjects {
		if !s.Passed {
			res.Passed = false
			break
		}
	}
	sort.Slice(res.Subjects, func(i, j int) bool { return res.Subjects[i].BookName < res.Subjects[j].BookName })
	return res
}

// ComputeClass derives the result of every student with marks and ranks them.
// names resolves student names for the tie-break and display (ids are used when nil).
func ComputeClass(marks []Mark, books map[string]academic.Book, names map[string]string, policy Policy) []Result {
	byStudent := make(map[string][]Mark)
	order := make([]string, 0)
	for _, m := range marks {
		if m.StudentID == "" {
			continue
		}
		if _, ok := byStudent[m.StudentID]; !ok {
			order = append(order, m.StudentID)
		}
		byStudent[m.StudentID] = append(byStudent[m.StudentID], m)
	}

	results := make([]Result, 0, len(order))
	for _, id := range order {
		res := Compute(byStudent[id], books, policy)
		if res.StudentID == "" { // every mark was skipped
			continue
		}
		res.StudentName = id
		if name, ok := names[id]; ok {
			res.StudentName = name
		}
		results = append(results, res)
	}
	Rank(results)
	return results
}

// Rank orders results by obtained marks desc, then percentage desc, then student name asc,
// and assigns competition positions: results equal on obtained marks and percentage share a position
// and the next position skips accordingly (1, 1, 3).
func Rank(results []Result) {
	coll := collate.New(language.English, collate.IgnoreCase)
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Obtained != b.Obtained {
			return a.Obtained > b.Obtained
		}
		if a.Percentage != b.Percentage {
			return a.Percentage > b.Percentage
		}
		return coll.CompareString(a.StudentName, b.StudentName) < 0
	})
	for i := range results {
		if i > 0 && results[i].Obtained == results[i-1].Obtained && results[i].Percentage == results[i-1].Percentage {
			results[i].Position = results[i-1].Position
		} else {
			results[i].Position = i + 1
		}
	}
}
