package rules

import (
	"fmt"
	"strings"
)

// Status values; they double as driver_status options.
const (
	StatusDriving = "Driving"
	StatusDelayed = "Delayed"
	StatusArrived = "Arrived"
)

// Status classifies the answer to "can you give me an update on your status?".
// Arrival outranks delays and delays outrank driving: "arrived but they're
// running behind" is an arrival, "driving but running late" is a delay.
var Status = Table{
	{Name: "arrived", Value: StatusArrived, Pattern: re(`(?i)\b(arrived|i'?m here|we'?re here|just got here|made it|at the (dock|receiver|consignee|customer|destination|facility|warehouse)|at dock|in (a |the )?door|backed in|unloading|delivered|checked in)\b`)},
	{Name: "delayed", Value: StatusDelayed, Pattern: re(`(?i)\b(delayed|delays?|running late|running behind|behind schedule|late|held up|sitting in traffic)\b`)},
	{Name: "driving", Value: StatusDriving, Pattern: re(`(?i)\b(driving|on the road|en ?route|rolling|heading|headed|on my way|on the way|moving|cruising|be there)\b`)},
}

// ---------------------------------------------------------------------------
// Location: mile marker > exit > highway > city > fallback
// ---------------------------------------------------------------------------

const NotSpecified = "Not specified"

var (
	interstatePattern = re(`(?i)\b(?:i-\s?|interstate\s+|i\s)(\d{1,3})\b`)
	usRoutePattern    = re(`\b(?:US|U\.S\.)\s?-?\s?(?:[Hh]ighway\s+|[Hh]wy\s+|[Rr]oute\s+)?(\d{1,3})\b`)
	highwayPattern    = re(`(?i)\b(highway|hwy|state route|route|rt|sr)\s?-?\s?(\d{1,4})\b`)
)

func highwayName(text string) string {
	if m := interstatePattern.FindStringSubmatch(text); m != nil {
		return "I-" + m[1]
	}
	if m := usRoutePattern.FindStringSubmatch(text); m != nil {
		return "US-" + m[1]
	}
	if m := highwayPattern.FindStringSubmatch(text); m != nil {
		return routeLabel(m[1]) + " " + m[2]
	}
	return ""
}

func routeLabel(kind string) string {
	switch strings.ToLower(kind) {
	case "highway", "hwy":
		return "Highway"
	case "state route", "sr":
		return "State Route"
	default:
		return "Route"
	}
}

func titleWords(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func withHighway(label string) func(m []string, text string) string {
	return func(m []string, text string) string {
		v := fmt.Sprintf("%s %s", label, strings.ToUpper(m[1]))
		if hw := highwayName(text); hw != "" {
			return hw + " " + v
		}
		return v
	}
}

var Location = Table{
	{Name: "mile_marker", Pattern: re(`(?i)\b(?:mile\s?marker|mm)\s?#?\s?(\d{1,4})\b`), Format: withHighway("Mile Marker")},
	{Name: "exit", Pattern: re(`(?i)\bexit\s?#?\s?(\d{1,4}[a-z]?)\b`), Format: withHighway("Exit")},
	{Name: "interstate", Pattern: interstatePattern, Format: func(m []string, _ string) string { return "I-" + m[1] }},
	{Name: "us_route", Pattern: usRoutePattern, Format: func(m []string, _ string) string { return "US-" + m[1] }},
	{Name: "highway", Pattern: highwayPattern, Format: func(m []string, _ string) string { return routeLabel(m[1]) + " " + m[2] }},
	{Name: "city", Pattern: re(`\b(?:near|outside of|outside|in|at|by|around|past|passing|through)\s+([A-Z][a-zA-Z]+(?:\s[A-Z][a-zA-Z]+)?)`)},
	{Name: "county", Pattern: re(`(?i)\b([a-z]+\s(?:city|county))\b`), Format: func(m []string, _ string) string { return titleWords(m[1]) }},
}

// ---------------------------------------------------------------------------
// ETA
// ---------------------------------------------------------------------------

var ETA = Table{
	{Name: "clock", Pattern: re(`(?i)\b(\d{1,2}:\d{2}\s?(?:am|pm|a\.m\.|p\.m\.)?)`)},
	{Name: "hour_meridiem", Pattern: re(`(?i)\b(\d{1,2}\s?(?:(?:am|pm)\b|a\.m\.|p\.m\.))`)},
	{Name: "relative", Pattern: re(`(?i)\b(in\s(?:about\s|around\s)?(?:\d+|an?|half an?)\s?(?:hours?|hrs?|minutes?|mins?))\b`)},
	{Name: "noon", Pattern: re(`(?i)\b((?:around\s)?(?:noon|midnight))\b`)},
	{Name: "tomorrow", Pattern: re(`(?i)\b(tomorrow(?:\s(?:morning|afternoon|evening|night))?)\b`)},
	{Name: "today", Pattern: re(`(?i)\b(tonight|this\s(?:morning|afternoon|evening)|later\stoday|end\sof\s(?:the\s)?day)\b`)},
	{Name: "distance_time", Pattern: re(`(?i)\b(\d+\s?(?:hours?|hrs?|minutes?|mins?)\s(?:out|away))\b`)},
	{Name: "duration", Pattern: re(`(?i)\b(\d+\s?(?:hours?|minutes?))\b`)},
}

// ---------------------------------------------------------------------------
// Delay reason
// ---------------------------------------------------------------------------

const (
	DelayNone    = "None"
	DelayOther   = "Other"
	DelayTraffic = "Heavy Traffic"
)

var DelayReason = Table{
	{Name: "traffic", Value: DelayTraffic, Pattern: re(`(?i)\b(traffic|congestion|jam|backed up|backup|construction|road ?work|detour)\b`)},
	{Name: "weather", Value: "Weather", Pattern: re(`(?i)\b(weather|rain|raining|snow|snowing|storm|fog|foggy|ice|icy|wind|windy|hail)\b`)},
	{Name: "mechanical", Value: "Mechanical", Pattern: re(`(?i)\b(mechanical|engine|tires?|maintenance|repairs?|shop|flat)\b`)},
	{Name: "loading", Value: "Loading/Unloading", Pattern: re(`(?i)\b(loading|unloading|shipper|receiver|warehouse|lumper|dock)\b`)},
	{Name: "other", Value: DelayOther, Pattern: re(`(?i)\b(break|rest|hours of service|hos|fuel|fueling|scales?|inspection|dot|personal)\b`)},
}

// ---------------------------------------------------------------------------
// Unloading status
// ---------------------------------------------------------------------------

const UnloadingNA = "N/A"

var Unloading = Table{
	{Name: "lumper", Value: "Waiting for Lumper", Pattern: re(`(?i)\blumpers?\b`)},
	{Name: "detention", Value: "Detention", Pattern: re(`(?i)\bdetention\b`)},
	{Name: "door_number", Pattern: re(`(?i)\bdoor\s?#?\s?(\d{1,4})\b`), Format: func(m []string, _ string) string { return "In Door " + m[1] }},
	{Name: "in_door", Value: "In Door", Pattern: re(`(?i)\b(in (a |the )?door|backed in|at (the |a )?door|unloading|being unloaded|getting unloaded)\b`)},
	{Name: "waiting", Value: "Waiting for Lumper", Pattern: re(`(?i)\b(waiting|in line|no doors?)\b`)},
}

// ---------------------------------------------------------------------------
// Proof of delivery reminder
// ---------------------------------------------------------------------------

var PODAck = Table{
	{Name: "pod", Value: "true", Pattern: re(`(?i)\b(pod|proof of delivery|paperwork|bol|bill of lading)\b`)},
	{Name: "will_do", Value: "true", Pattern: re(`(?i)\b(will do|got it|no problem|sounds good|of course|absolutely|i will|i'?ll (send|submit|upload|do|get)|roger|copy that|10-4)\b`)},
	{Name: "yes", Value: "true", PendingOnly: true, Pattern: re(`(?i)\b(yes|yeah|yep|yup|sure|ok|okay|alright)\b`)},
}

var PODDecline = Table{
	{Name: "decline", Value: "false", PendingOnly: true, Pattern: re(`(?i)\b(no|nope|nah|not now|won'?t|can'?t|don'?t)\b`)},
}

// ---------------------------------------------------------------------------
// Emergency topics
// ---------------------------------------------------------------------------

const (
	SafetyConfirmed = "Driver confirmed everyone is safe"
	SafetyConcerns  = "Safety concerns reported"
	SafetyUnknown   = "Safety status unknown"

	InjuriesNone    = "No injuries reported"
	InjuriesFound   = "Injuries reported"
	InjuriesUnknown = "Injury status unknown"
)

var Safety = Table{
	{Name: "unsafe", Value: SafetyConcerns, Pattern: re(`(?i)\b(not safe|unsafe|in danger|danger|not ok(ay)?|need (an )?ambulance|call 911|trapped)\b`)},
	{Name: "confirmed", Value: SafetyConfirmed, Pattern: re(`(?i)\b(everyone'?s (fine|ok|okay|safe|good|alright)|everyone is (fine|ok|okay|safe|good|alright)|we'?re (fine|ok|okay|safe|good|alright)|we are (fine|ok|okay|safe|good|alright)|i'?m (fine|ok|okay|safe|good|alright|not hurt)|all safe|no one(?:'s| is)? hurt|nobody(?:'s| is| got| was)? hurt|no injur(?:y|ies)|not injured|safe)\b`)},
	{Name: "injured", Value: SafetyConcerns, Pattern: re(`(?i)\b(injur(?:y|ies|ed)|hurt|bleeding|unconscious|can'?t breathe)\b`)},
	{Name: "bare", Value: SafetyConfirmed, PendingOnly: true, Pattern: re(`(?i)\b(fine|ok|okay|good|alright|yes|yeah)\b`)},
}

var Injury = Table{
	{Name: "none", Value: InjuriesNone, Pattern: re(`(?i)\b(no injur(?:y|ies)|not injured|no one(?:'s| is| was)? (?:hurt|injured)|nobody(?:'s| is| got| was)? (?:hurt|injured)|not hurt|everyone'?s (?:fine|ok|okay))\b`)},
	{Name: "injured", Value: InjuriesFound, Pattern: re(`(?i)\b(injur(?:y|ies|ed)|hurt|bleeding|unconscious|ambulance|broken (?:arm|leg|bone))\b`)},
}

const (
	EmergencyAccident  = "Accident"
	EmergencyBreakdown = "Breakdown"
	EmergencyMedical   = "Medical"
	EmergencyOther     = "Other"
)

// Incident maps the incident description onto the emergency category set.
var Incident = Table{
	{Name: "accident", Value: EmergencyAccident, Pattern: re(`(?i)\b(accident|crash|crashed|collision|hit|rear[- ]ended|jackknifed?|rolled over|rollover|wreck)\b`)},
	{Name: "breakdown", Value: EmergencyBreakdown, Pattern: re(`(?i)\b(breakdown|broke down|broken down|blowout|blew a tire|flat tire|flat|mechanical|engine|overheat(?:ed|ing)?|tires?|brakes?|won'?t start)\b`)},
	{Name: "medical", Value: EmergencyMedical, Pattern: re(`(?i)\b(medical|chest pain|heart|unconscious|breathing|can'?t breathe|sick|dizzy|seizure|stroke|fainted|passed out)\b`)},
	{Name: "other", Value: EmergencyOther, Pattern: re(`(?i)\b(fire|theft|stolen|robbed|hijack(?:ed)?|hazmat)\b`)},
}

var LoadSecurity = Table{
	{Name: "insecure", Value: "false", Pattern: re(`(?i)\b(load (?:has )?shifted|shifted|spill(?:ed|ing)?|damaged|not secure|unsecured|tipped|lost (?:the |my |some )?(?:load|cargo)|leaking)\b`)},
	{Name: "secure", Value: "true", Pattern: re(`(?i)\b((?:load|cargo|freight|trailer)(?:'s| is)? (?:secure|secured|fine|ok|okay|good|intact|safe)|secure|secured|intact|strapped)\b`)},
	{Name: "bare", Value: "true", PendingOnly: true, Pattern: re(`(?i)\b(yes|yeah|yep|fine|good|ok|okay)\b`)},
}

// ---------------------------------------------------------------------------
// Difficult drivers
// ---------------------------------------------------------------------------

// Refusal marks an uncooperative answer regardless of length.
var Refusal = Table{
	{Name: "refusal", Pattern: re(`(?i)\b(don'?t have time|no time|busy|can'?t talk|leave me alone|not now|stop calling|none of your business|why do you care|whatever|call (?:me )?later)\b`)},
}

// Noise marks a bad line; the answer is unclear rather than uncooperative.
var Noise = Table{
	{Name: "noise", Pattern: re(`(?i)(\bcan'?t hear\b|\btoo loud\b|\bspeak up\b|\bsay (?:that )?again\b|\bbreaking up\b|\bbad connection\b|\bnoisy\b|\bwhat\?)`)},
}
