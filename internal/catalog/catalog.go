// Package catalog holds the fixed code-to-label dictionaries for the
// categorical listing columns (fuel, body, gearbox, drivetrain).
package catalog

import "sort"

// Entry is a single code/label pair.
type Entry struct {
	Code  int    `json:"code"`
	Label string `json:"label"`
}

// Dictionary is a closed mapping from integer codes to display labels.
// Several codes may share a label.
type Dictionary struct {
	name    string
	entries []Entry
	byCode  map[int]string
	labels  []string
}

// New builds a dictionary. Entry order determines label order.
func New(name string, entries ...Entry) *Dictionary {
	d := &Dictionary{
		name:    name,
		entries: entries,
		byCode:  make(map[int]string, len(entries)),
	}
	seen := map[string]bool{}
	for _, e := range entries {
		d.byCode[e.Code] = e.Label
		if !seen[e.Label] {
			seen[e.Label] = true
			d.labels = append(d.labels, e.Label)
		}
	}
	return d
}

// Name returns the axis name, e.g. "fuel".
func (d *Dictionary) Name() string { return d.name }

// Len returns the number of codes.
func (d *Dictionary) Len() int { return len(d.entries) }

// Entries returns a copy of the code/label pairs.
func (d *Dictionary) Entries() []Entry {
	out := make([]Entry, len(d.entries))
	copy(out, d.entries)
	return out
}

// Label returns the label for code.
func (d *Dictionary) Label(code int) (string, bool) {
	l, ok := d.byCode[code]
	return l, ok
}

// Labels returns the distinct labels in first-appearance order.
func (d *Dictionary) Labels() []string {
	out := make([]string, len(d.labels))
	copy(out, d.labels)
	return out
}

// Codes returns every code, ascending.
func (d *Dictionary) Codes() []int {
	out := make([]int, 0, len(d.entries))
	for _, e := range d.entries {
		out = append(out, e.Code)
	}
	sort.Ints(out)
	return out
}

// CodesFor maps a label set to every code carrying one of those labels,
// ascending. Unknown labels contribute nothing, so the result is always a
// subset of the dictionary's codes.
func (d *Dictionary) CodesFor(labels []string) []int {
	want := make(map[string]bool, len(labels))
	for _, l := range labels {
		want[l] = true
	}
	out := []int{}
	for _, e := range d.entries {
		if want[e.Label] {
			out = append(out, e.Code)
		}
	}
	sort.Ints(out)
	return out
}

// LabelsFor maps codes back to their distinct labels in label order.
// Codes missing from the dictionary are dropped.
func (d *Dictionary) LabelsFor(codes []int) []string {
	have := make(map[string]bool, len(codes))
	for _, c := range codes {
		if l, ok := d.byCode[c]; ok {
			have[l] = true
		}
	}
	var out []string
	for _, l := range d.labels {
		if have[l] {
			out = append(out, l)
		}
	}
	return out
}

// Narrowed reports whether codes is a proper, non-empty subset of the
// dictionary's codes.
func (d *Dictionary) Narrowed(codes []int) bool {
	n := 0
	seen := map[int]bool{}
	for _, c := range codes {
		if _, ok := d.byCode[c]; ok && !seen[c] {
			seen[c] = true
			n++
		}
	}
	return n > 0 && n < len(d.byCode)
}

var (
	Fuel = New("fuel",
		Entry{1, "Petrol"},
		Entry{2, "Diesel"},
		Entry{3, "LPG"},
		Entry{4, "LPG"},
		Entry{5, "Hybrid"},
		Entry{6, "Electric"},
		Entry{8, "LPG"},
		Entry{9, "LPG"},
		Entry{10, "Hybrid"},
	)
	Body = New("body",
		Entry{3, "sedan"},
		Entry{2, "wagon"},
		Entry{5, "SUV"},
		Entry{4, "hatchback"},
		Entry{8, "minivan"},
		Entry{6, "coupe"},
		Entry{9, "pickup"},
		Entry{254, "van"},
		Entry{307, "liftback"},
	)
	Gearbox = New("gearbox",
		Entry{1, "MT"},
		Entry{2, "AT"},
	)
	Drive = New("drive",
		Entry{1, "AWD"},
		Entry{2, "FWD"},
		Entry{3, "RWD"},
	)
)

// All returns the four category dictionaries in display order.
func All() []*Dictionary { return []*Dictionary{Fuel, Body, Gearbox, Drive} }
