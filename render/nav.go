package render

import "strings"

type Sub struct {
	Key  string
	Path string
}

type Domain struct {
	Key  string
	Subs []Sub
}

// Href is the landing page of the domain.
func (d Domain) Href() string {
	if len(d.Subs) == 0 {
		return "/"
	}
	return d.Subs[0].Path
}

var Domains = []Domain{
	{Key: "LOGBOOK", Subs: []Sub{
		{"FORM", "/logbook/form"},
		{"MESSAGES", "/logbook/messages"},
		{"MUST-READ", "/logbook/mustread"},
		{"MY-NOTEBOOK", "/logbook/mynotebook"},
		{"ARCHIVE", "/logbook/archive"},
		{"TODO", "/logbook/todo"},
	}},
	{Key: "SHIFTS", Subs: []Sub{
		{"NEW SHIFT", "/shifts/start"},
		{"STOP SHIFT", "/shifts/stop"},
		{"SHIFTS OVERVIEW", "/shifts/overview"},
	}},
	{Key: "RAW MATERIALS", Subs: []Sub{
		{"RAW INBOUND", "/raw/inbound-raw"},
		{"RAW OVERVIEW", "/raw/overview"},
	}},
	{Key: "CHEMICALS", Subs: []Sub{
		{"INBOUND CHEMICALS", "/chemicals/inbound"},
		{"CHEMICALS STOCK", "/chemicals/stock"},
		{"CHEMICALS SWITCH", "/chemicals/switch"},
		{"USED OVERVIEW", "/chemicals/used-overview"},
	}},
	{Key: "BATCH", Subs: []Sub{
		{"BATCH CREATION", "/bb/batch"},
		{"BATCH OVERVIEW", "/bb/batch-overview"},
	}},
	{Key: "BB WAREHOUSING", Subs: []Sub{
		{"DISCHARGE", "/bb/discharge"},
		{"DISCHARGE OVERVIEW", "/bb/discharge-overview"},
		{"ALLOCATION", "/bb/allocation"},
		{"LOADING", "/bb/loading"},
		{"STOCK", "/bb/stock"},
	}},
	{Key: "OUTBOUND BULK", Subs: []Sub{
		{"BULK INBOUND", "/bulk/registratie"},
		{"BULK OVERVIEW", "/bulk/all"},
	}},
	{Key: "ANALYSES", Subs: []Sub{
		{"MESSAGES FILTER", "/analyses/messages-filter"},
		{"RAW FILTER", "/analyses/filter"},
		{"OEE OVERVIEW", "/analyses/overview-oee"},
		{"PRODUCTION", "/analyses/production"},
	}},
	{Key: "TEAM", Subs: []Sub{
		{"TOPICS", "/team/topics"},
	}},
}

// TeamSubs is the tertiary bar of every TEAM page.
var TeamSubs = []Sub{
	{"TOPICS", "/team/topics"},
	{"SCHEDULE", "/team/schedule"},
	{"ABSENCES", "/team/absences"},
	{"ADD TOPIC", "/team/topics/add"},
	{"TOPIC STATS", "/team/topics/stats"},
	{"PAST TOPICS", "/team/topics/past"},
	{"REPLACEMENTS", "/team/replacements"},
	{"WORKING HOURS", "/team/work-performance"},
}

var domainPrefixes = []struct {
	prefix string
	key    string
}{
	{"/logbook", "LOGBOOK"},
	{"/shifts", "SHIFTS"},
	{"/analyses", "ANALYSES"},
	{"/team", "TEAM"},
	{"/raw", "RAW MATERIALS"},
	{"/chemicals", "CHEMICALS"},
	{"/bb/batch", "BATCH"}, // before /bb
	{"/bb", "BB WAREHOUSING"},
	{"/bulk", "OUTBOUND BULK"},
}

// ActiveDomain maps a request path to the highlighted domain, or "".
func ActiveDomain(path string) string {
	for _, p := range domainPrefixes {
		if strings.HasPrefix(path, p.prefix) {
			return p.key
		}
	}
	return ""
}

// SubsFor returns the tertiary bar of a domain.
func SubsFor(domain string) []Sub {
	if domain == "TEAM" {
		return TeamSubs
	}
	for _, d := range Domains {
		if d.Key == domain {
			return d.Subs
		}
	}
	return nil
}
