// Package rollno decodes college roll numbers.
//
// Regular entries look like 21567T0907 (entry year 2021, branch 09, serial
// 07); lateral entries like 225670903L (no T, trailing L) join in the
// second year.
package rollno

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

const institute = "567"

var branchCodes = map[string]string{
	"09": "CSE",
	"30": "CSD",
	"15": "ECE",
	"12": "EEE",
	"00": "CIVIL",
	"18": "IT",
	"03": "MECH",
}

var (
	regularRoll = regexp.MustCompile(`^(\d{2})` + institute + `T(\d{2})(\d{2})$`)
	lateralRoll = regexp.MustCompile(`^(\d{2})` + institute + `(\d{2})(\d{2})L$`)
)

type Info struct {
	EntryYear  int
	BranchCode string
	Branch     string
	Serial     int
	Lateral    bool
}

// Parse reports the fields of a well-formed roll number with a known
// branch and a serial between 1 and 99.
func Parse(roll string) (Info, bool) {
	roll = strings.ToUpper(strings.TrimSpace(roll))
	m := regularRoll.FindStringSubmatch(roll)
	lateral := false
	if m == nil {
		m = lateralRoll.FindStringSubmatch(roll)
		lateral = true
	}
	if m == nil {
		return Info{}, false
	}
	branch, ok := branchCodes[m[2]]
	if !ok {
		return Info{}, false
	}
	yy, _ := strconv.Atoi(m[1])
	serial, _ := strconv.Atoi(m[3])
	if serial < 1 || serial > 99 {
		return Info{}, false
	}
	return Info{
		EntryYear:  2000 + yy,
		BranchCode: m[2],
		Branch:     branch,
		Serial:     serial,
		Lateral:    lateral,
	}, true
}

// StudyYear is the year of study at now. The session turns over in June;
// lateral entries start in the second year.
func (i Info) StudyYear(now time.Time) int {
	diff := now.Year() - i.EntryYear
	if now.Month() < time.June {
		diff--
	}
	if i.Lateral {
		return diff + 2
	}
	return diff + 1
}

// Branches lists the branch names in alphabetical order.
func Branches() []string {
	out := make([]string, 0, len(branchCodes))
	for _, name := range branchCodes {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// BranchCode accepts a two digit code or a branch name such as "cse".
func BranchCode(branch string) (string, bool) {
	branch = strings.ToUpper(strings.TrimSpace(branch))
	if _, ok := branchCodes[branch]; ok {
		return branch, true
	}
	for code, name := range branchCodes {
		if name == branch {
			return code, true
		}
	}
	return "", false
}

// Regular builds the roll number of a regular entry.
func Regular(entryYear int, code string, serial int) string {
	return fmt.Sprintf("%02d%sT%s%02d", entryYear%100, institute, code, serial)
}

// LikePatterns returns SQL LIKE patterns matching the regular and lateral
// roll numbers of one entry year and branch.
func LikePatterns(entryYear int, code string) []string {
	yy := fmt.Sprintf("%02d", entryYear%100)
	return []string{
		yy + institute + "T" + code + "__",
		yy + institute + code + "__L",
	}
}
