package dashboard

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"strconv"

	"github.com/KaramelBytes/carscout/internal/catalog"
	"github.com/KaramelBytes/carscout/internal/dataset"
	"github.com/KaramelBytes/carscout/internal/filter"
	"github.com/KaramelBytes/carscout/internal/rank"
)

//go:embed templates/page.html
var templates embed.FS

func parsePage() (*template.Template, error) {
	return template.New("page.html").Funcs(template.FuncMap{
		"thousands": thousands,
	}).ParseFS(templates, "templates/page.html")
}

type option struct {
	Label   string
	Checked bool
}

type axisView struct {
	Field   string
	Title   string
	Options []option
}

type rowView struct {
	Rank   int
	Model  string
	Count  int
	Years  dataset.YearSpan
	Detail *DetailView
}

type boundsView struct {
	PriceLower, PriceUpper, PriceStep int
	YearLower, YearUpper              int
	OdoLower, OdoUpper, OdoStep       int
}

type pageView struct {
	State    filter.State
	Matched  int
	Rows     []rowView
	Axes     []axisView
	Segments []option
	Bounds   boundsView
	// Orphan is a detail view whose model is not in the current ranking.
	Orphan   *DetailView
	Listings int
}

var axisTitles = map[string]string{
	filter.FieldFuel:  "Fuel type",
	filter.FieldBody:  "Body type",
	filter.FieldGear:  "Gearbox",
	filter.FieldDrive: "Drivetrain",
}

func (s *Server) buildView(sess Session) pageView {
	st := sess.State
	res := rank.Rank(s.data.Listings, s.data.Ratings, st)

	v := pageView{
		State:    st,
		Matched:  res.Matched,
		Listings: len(s.data.Listings),
		Bounds: boundsView{
			PriceLower: filter.PriceLowerBound, PriceUpper: filter.PriceUpperBound, PriceStep: filter.PriceStep,
			YearLower: filter.YearLowerBound, YearUpper: filter.YearUpperBound,
			OdoLower: filter.OdoLowerBound, OdoUpper: filter.OdoUpperBound, OdoStep: filter.OdoStep,
		},
	}
	v.Axes = []axisView{
		axis(filter.FieldFuel, catalog.Fuel, st.Fuel),
		axis(filter.FieldBody, catalog.Body, st.Body),
		axis(filter.FieldGear, catalog.Gearbox, st.Gear),
		axis(filter.FieldDrive, catalog.Drive, st.Drive),
	}
	for _, seg := range s.segments {
		v.Segments = append(v.Segments, option{Label: seg, Checked: st.SegmentSelected(seg)})
	}

	placed := false
	for i, m := range res.Models {
		row := rowView{Rank: i + 1, Model: m.Model, Count: m.Count}
		row.Years, _ = s.data.YearRange(m.Model)
		if sess.Detail != nil && sess.Detail.Model == m.Model {
			row.Detail = sess.Detail
			placed = true
		}
		v.Rows = append(v.Rows, row)
	}
	if sess.Detail != nil && !placed {
		v.Orphan = sess.Detail
	}
	return v
}

func axis(field string, d *catalog.Dictionary, codes []int) axisView {
	selected := map[string]bool{}
	for _, l := range d.LabelsFor(codes) {
		selected[l] = true
	}
	a := axisView{Field: field, Title: axisTitles[field]}
	for _, l := range d.Labels() {
		a.Options = append(a.Options, option{Label: l, Checked: selected[l]})
	}
	return a
}

func (s *Server) render(w http.ResponseWriter, status int, sess Session) {
	var buf bytes.Buffer
	if err := s.page.Execute(&buf, s.buildView(sess)); err != nil {
		s.log.Error().Err(err).Msg("render page")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// thousands formats n as 12 345.
func thousands(n int) string {
	str := strconv.Itoa(n)
	neg := n < 0
	if neg {
		str = str[1:]
	}
	var out []byte
	for i := range len(str) {
		if i > 0 && (len(str)-i)%3 == 0 {
			out = append(out, ' ')
		}
		out = append(out, str[i])
	}
	if neg {
		return "-" + string(out)
	}
	return string(out)
}
