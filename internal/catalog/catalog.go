// Package catalog serves the static reference data behind the dashboard:
// river stations, flood-risk zones, hazard alerts and news.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/couchcryptid/flood-watch-api/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var seedYAML []byte

type seed struct {
	Stations  []domain.RiverStation `yaml:"stations"`
	RiskZones []zoneSeed            `yaml:"riskZones"`
	Alerts    []alertSeed           `yaml:"alerts"`
	News      []newsSeed            `yaml:"news"`
}

type zoneSeed struct {
	ID                 string      `yaml:"id"`
	Name               string      `yaml:"name"`
	District           string      `yaml:"district"`
	RiskLevel          string      `yaml:"riskLevel"`
	Coordinates        [][]float64 `yaml:"coordinates"`
	AffectedPopulation int         `yaml:"affectedPopulation"`
}

type alertSeed struct {
	ID            string   `yaml:"id"`
	Type          string   `yaml:"type"`
	Severity      string   `yaml:"severity"`
	Title         string   `yaml:"title"`
	Description   string   `yaml:"description"`
	AffectedAreas []string `yaml:"affectedAreas"`
	IssuedAgo     string   `yaml:"issuedAgo"`
	ExpiresIn     string   `yaml:"expiresIn"`
	Source        string   `yaml:"source"`
}

type newsSeed struct {
	ID           string `yaml:"id"`
	Title        string `yaml:"title"`
	Summary      string `yaml:"summary"`
	Source       string `yaml:"source"`
	URL          string `yaml:"url"`
	PublishedAgo string `yaml:"publishedAgo"`
	ImageURL     string `yaml:"imageUrl"`
	Category     string `yaml:"category"`
}

// Catalog is immutable after Parse and safe for concurrent use. Relative
// seed times are kept as offsets and resolved against the domain clock on
// every read.
type Catalog struct {
	stations []domain.RiverStation
	index    map[string]int
	zones    []domain.FloodRiskZone
	alerts   []alertEntry
	news     []newsEntry
	problems []error
}

type alertEntry struct {
	alert     domain.HazardAlert
	issuedAgo time.Duration
	expiresIn time.Duration
}

func (e alertEntry) at(now time.Time) domain.HazardAlert {
	a := e.alert
	a.IssuedAt = now.Add(-e.issuedAgo)
	a.ExpiresAt = now.Add(e.expiresIn)
	return a
}

type newsEntry struct {
	item         domain.NewsItem
	publishedAgo time.Duration
}

// Seed returns a copy of the embedded seed YAML.
func Seed() []byte {
	return append([]byte(nil), seedYAML...)
}

// Load parses the embedded seed data and rejects it if any integrity check fails.
func Load() (*Catalog, error) {
	c, err := Parse(seedYAML)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	return c, nil
}

// Parse decodes seed YAML without running integrity checks.
func Parse(data []byte) (*Catalog, error) {
	var s seed
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	c := &Catalog{
		stations: s.Stations,
		index:    make(map[string]int, len(s.Stations)),
	}
	for i, st := range s.Stations {
		if _, dup := c.index[st.ID]; dup {
			c.problemf("station %s: duplicate id", st.ID)
			continue
		}
		c.index[st.ID] = i
	}

	for _, z := range s.RiskZones {
		zone := domain.FloodRiskZone{
			ID:                 z.ID,
			Name:               z.Name,
			District:           z.District,
			RiskLevel:          domain.RiskLevel(z.RiskLevel),
			AffectedPopulation: z.AffectedPopulation,
		}
		for _, p := range z.Coordinates {
			if len(p) != 2 {
				c.problemf("zone %s: coordinate %v is not a [lat, lon] pair", z.ID, p)
				continue
			}
			zone.Coordinates = append(zone.Coordinates, [2]float64{p[0], p[1]})
		}
		c.zones = append(c.zones, zone)
	}

	for _, a := range s.Alerts {
		c.alerts = append(c.alerts, alertEntry{
			alert: domain.HazardAlert{
				ID:            a.ID,
				Type:          domain.AlertType(a.Type),
				Severity:      domain.AlertSeverity(a.Severity),
				Title:         a.Title,
				Description:   a.Description,
				AffectedAreas: a.AffectedAreas,
				Source:        a.Source,
			},
			issuedAgo: c.offset("alert "+a.ID+" issuedAgo", a.IssuedAgo),
			expiresIn: c.offset("alert "+a.ID+" expiresIn", a.ExpiresIn),
		})
	}

	for _, n := range s.News {
		c.news = append(c.news, newsEntry{
			item: domain.NewsItem{
				ID:       n.ID,
				Title:    n.Title,
				Summary:  n.Summary,
				Source:   n.Source,
				URL:      n.URL,
				ImageURL: n.ImageURL,
				Category: domain.NewsCategory(n.Category),
			},
			publishedAgo: c.offset("news "+n.ID+" publishedAgo", n.PublishedAgo),
		})
	}

	return c, nil
}

func (c *Catalog) offset(field, s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		c.problemf("%s: %v", field, err)
		return 0
	}
	return d
}

func (c *Catalog) problemf(format string, args ...any) {
	c.problems = append(c.problems, fmt.Errorf(format, args...))
}

// Stations returns every station, optionally filtered by district, stamped
// with the current time as lastUpdated.
func (c *Catalog) Stations(district string) []domain.RiverStation {
	now := domain.Now()
	out := make([]domain.RiverStation, 0, len(c.stations))
	for _, s := range c.stations {
		if !domain.MatchesDistrict(s.District, district) {
			continue
		}
		s.LastUpdated = now
		out = append(out, s)
	}
	return out
}

// Station looks up one station by ID.
func (c *Catalog) Station(id string) (domain.RiverStation, error) {
	i, ok := c.index[id]
	if !ok {
		return domain.RiverStation{}, fmt.Errorf("station %q: %w", id, domain.ErrNotFound)
	}
	s := c.stations[i]
	s.LastUpdated = domain.Now()
	return s, nil
}

// RiskZones returns the assessed zones, optionally filtered by district,
// stamped with the current time as lastAssessed.
func (c *Catalog) RiskZones(district string) []domain.FloodRiskZone {
	now := domain.Now()
	out := make([]domain.FloodRiskZone, 0, len(c.zones))
	for _, z := range c.zones {
		if domain.MatchesDistrict(z.District, district) {
			z.LastAssessed = now
			out = append(out, z)
		}
	}
	return out
}

// Alerts returns all alerts, or only those not yet expired when activeOnly is set.
func (c *Catalog) Alerts(activeOnly bool) []domain.HazardAlert {
	now := domain.Now()
	out := make([]domain.HazardAlert, 0, len(c.alerts))
	for _, e := range c.alerts {
		a := e.at(now)
		if activeOnly && !a.Active(now) {
			continue
		}
		out = append(out, a)
	}
	return out
}

// News returns news items in seed order, optionally filtered by category.
func (c *Catalog) News(category domain.NewsCategory) []domain.NewsItem {
	now := domain.Now()
	out := make([]domain.NewsItem, 0, len(c.news))
	for _, e := range c.news {
		if category != "" && e.item.Category != category {
			continue
		}
		n := e.item
		n.PublishedAt = now.Add(-e.publishedAgo)
		out = append(out, n)
	}
	return out
}

// Validate runs the integrity checks and joins every failure into one error.
func (c *Catalog) Validate() error {
	problems := append([]error(nil), c.problems...)
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Errorf(format, args...))
	}

	if len(c.stations) == 0 {
		add("no stations")
	}
	for _, s := range c.stations {
		if s.ID == "" || s.Name == "" {
			add("station %q: id and name are required", s.ID)
		}
		if !domain.IsDistrict(s.District) {
			add("station %s: unknown district %q", s.ID, s.District)
		}
		if !domain.SriLankaBounds.Contains(s.Latitude, s.Longitude) {
			add("station %s: (%.4f, %.4f) outside Sri Lanka", s.ID, s.Latitude, s.Longitude)
		}
		if s.NormalLevel >= s.WarningLevel || s.WarningLevel >= s.DangerLevel {
			add("station %s: thresholds must satisfy normal < warning < danger", s.ID)
		}
		if !s.Trend.Valid() {
			add("station %s: unknown trend %q", s.ID, s.Trend)
		}
		if err := domain.ValidateLevel(s.CurrentLevel); err != nil {
			add("station %s: %v", s.ID, err)
		}
		if want := domain.DeriveStatus(s.CurrentLevel, s); s.Status != want {
			add("station %s: status %q does not match level %.2f (want %q)", s.ID, s.Status, s.CurrentLevel, want)
		}
	}

	seen := map[string]bool{}
	for _, z := range c.zones {
		if seen[z.ID] {
			add("zone %s: duplicate id", z.ID)
		}
		seen[z.ID] = true
		if !domain.IsDistrict(z.District) {
			add("zone %s: unknown district %q", z.ID, z.District)
		}
		if !z.RiskLevel.Valid() {
			add("zone %s: unknown risk level %q", z.ID, z.RiskLevel)
		}
		if len(z.Coordinates) < 3 {
			add("zone %s: polygon needs at least 3 points", z.ID)
		}
		for _, p := range z.Coordinates {
			if !domain.SriLankaBounds.Contains(p[0], p[1]) {
				add("zone %s: point (%.4f, %.4f) outside Sri Lanka", z.ID, p[0], p[1])
			}
		}
	}

	seen = map[string]bool{}
	for _, e := range c.alerts {
		a := e.alert
		if seen[a.ID] {
			add("alert %s: duplicate id", a.ID)
		}
		seen[a.ID] = true
		if !a.Type.Valid() {
			add("alert %s: unknown type %q", a.ID, a.Type)
		}
		if !a.Severity.Valid() {
			add("alert %s: unknown severity %q", a.ID, a.Severity)
		}
		if e.expiresIn+e.issuedAgo <= 0 {
			add("alert %s: must expire after it is issued", a.ID)
		}
		for _, d := range a.AffectedAreas {
			if !domain.IsDistrict(d) {
				add("alert %s: unknown district %q", a.ID, d)
			}
		}
	}

	seen = map[string]bool{}
	for _, e := range c.news {
		n := e.item
		if seen[n.ID] {
			add("news %s: duplicate id", n.ID)
		}
		seen[n.ID] = true
		if !n.Category.Valid() {
			add("news %s: unknown category %q", n.ID, n.Category)
		}
		if n.URL == "" {
			add("news %s: url is required", n.ID)
		}
	}

	return errors.Join(problems...)
}
