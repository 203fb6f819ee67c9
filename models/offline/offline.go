// Package offline answers visitors without network access. Replies are a pure
// function of the input text and the embedded knowledge base.
package offline

import (
	"fmt"
	"strings"
	"sync"

	"github.com/defendhub/sentinel/models"
	"github.com/defendhub/sentinel/models/knowledge"
)

// Group names the pattern group that produced a reply.
type Group string

const (
	GroupEmergency Group = "emergency"
	GroupIdentity  Group = "identity"
	GroupGreeting  Group = "greeting"
	GroupHelp      Group = "help"
	GroupServices  Group = "services"
	GroupContact   Group = "contact"
	GroupLocation  Group = "location"
	GroupPortfolio Group = "portfolio"
	GroupCareers   Group = "careers"
	GroupDefault   Group = "default"
)

// CaseGroup is the group of a single portfolio case.
func CaseGroup(caseID string) Group {
	return Group("case:" + caseID)
}

type patternGroup struct {
	name     Group
	keywords []keyword
	reply    models.Reply
}

// Responder is the offline keyword matcher. Groups are tested in declaration
// order and the first group with a matching keyword wins.
type Responder struct {
	groups   []patternGroup
	fallback models.Reply
}

// New compiles the pattern groups for kb.
//
// Incident keywords are declared first so that inputs like "help, we were
// hacked" are never shadowed by a broader group.
func New(kb *knowledge.Base) *Responder {
	co := kb.Company
	r := &Responder{}

	r.add(GroupEmergency,
		[]string{"*hack*", "*breach*", "*attack*", "emergency", "ransomware", "malware", "compromised", "incident*", "exfiltrat*"},
		models.Reply{
			Text: fmt.Sprintf("CRITICAL ALERT: Potential security incident flagged. Isolate affected systems now and reach our %s immediately on %s.",
				co.SOC, co.EmergencyPhone),
			Action: &models.Action{Label: "REPORT INCIDENT", Path: string(models.RouteContact)},
		})

	r.add(GroupIdentity,
		[]string{"who are you", "what are you", "your name", "sentinel", "bot", "ai", "assistant", "robot"},
		models.Reply{
			Text: fmt.Sprintf("I am %s, the virtual defense assistant for %s. I brief visitors on our defense modules, surface case logs, and route priority clients to HQ.",
				co.Assistant, co.Name),
		})

	r.add(GroupGreeting,
		[]string{"hello", "hi", "hey", "start", "greetings", "good morning", "good afternoon", "good evening"},
		models.Reply{
			Text: "Greetings. Sentinel AI is running in local mode. I can brief you on defense services, case logs, HQ location, or incident response. State your query.",
		})

	r.add(GroupHelp,
		[]string{"help", "menu", "options", "commands", "what can you do", "assist*"},
		models.Reply{
			Text: strings.Join([]string{
				"AVAILABLE COMMANDS:",
				"> services - defense modules",
				"> portfolio - case logs",
				"> contact - secure channel and pricing",
				"> location - HQ coordinates",
				"> emergency - incident response",
			}, "\n"),
			Action: &models.Action{Label: "VIEW SERVICES", Path: string(models.RouteServices)},
		})

	r.add(GroupServices,
		[]string{"service*", "pentest*", "penetration", "red team*", "audit*", "iso", "compliance", "forensic*",
			"devsecops", "iot", "threat detection", "vulnerab*", "firmware", "code review", "secure software"},
		models.Reply{
			Text: fmt.Sprintf("DEFENSE MODULES: %s. Each module deploys with a dedicated specialist cell.",
				strings.Join(kb.ServiceTitles(), ", ")),
			Action: &models.Action{Label: "VIEW SERVICES", Path: string(models.RouteServices)},
		})

	r.add(GroupContact,
		[]string{"contact", "price*", "pricing", "cost*", "quote*", "email", "phone", "call", "hire", "budget",
			"consult*", "get in touch", "talk to", "rates"},
		models.Reply{
			Text: fmt.Sprintf("Secure channel: %s (PGP %s). Priority line: %s. Engagements are scoped individually; submit a brief through the contact portal for a quote.",
				co.Email, co.PGP, co.EmergencyPhone),
			Action: &models.Action{Label: "OPEN CHANNEL", Path: string(models.RouteContact)},
		})

	r.add(GroupLocation,
		[]string{"where", "locat*", "office*", "address", "hq", "headquarters", "lagos", "victoria island", "visit"},
		models.Reply{
			Text:   fmt.Sprintf("HQ coordinates: %s. Our %s operates around the clock.", co.HQ, co.SOC),
			Action: &models.Action{Label: "VIEW MAP", Path: string(models.RouteContact)},
		})

	for _, c := range kb.Cases {
		r.add(CaseGroup(c.ID), c.Keywords, models.Reply{
			Text:   fmt.Sprintf("Accessing case log: %s (%s). %s.", c.Title, c.Sector, c.Highlight),
			Action: &models.Action{Label: "VIEW CASE LOG", Path: string(c.Route())},
		})
	}

	titles := make([]string, len(kb.Cases))
	for i, c := range kb.Cases {
		titles[i] = c.Title
	}
	r.add(GroupPortfolio,
		[]string{"portfolio", "case*", "clients", "experience", "project*", "track record", "deployments"},
		models.Reply{
			Text:   fmt.Sprintf("CASE LOGS: %s. Select a file for the full debrief.", strings.Join(titles, ", ")),
			Action: &models.Action{Label: "VIEW CASE LOGS", Path: string(models.RoutePortfolio)},
		})

	r.add(GroupCareers,
		[]string{"job*", "career*", "vacanc*", "recruit*", "internship*", "hiring", "employ*", "join your team", "join the team"},
		models.Reply{
			Text:   "We only scout active agents. Review our operator profile for current scouting signals.",
			Action: &models.Action{Label: "ABOUT US", Path: string(models.RouteAbout)},
		})

	r.fallback = models.Reply{
		Text:   "Network link unavailable. Sentinel is operating in local mode with a limited command set. Try: services, portfolio, contact, location, or emergency.",
		Action: &models.Action{Label: "CONTACT HQ", Path: string(models.RouteContact)},
	}
	return r
}

var defaultResponder = sync.OnceValue(func() *Responder { return New(knowledge.Default()) })

// Default returns a responder over the embedded knowledge base.
func Default() *Responder {
	return defaultResponder()
}

func (r *Responder) add(name Group, raw []string, reply models.Reply) {
	r.groups = append(r.groups, patternGroup{name: name, keywords: compileKeywords(raw), reply: reply})
}

// Match returns the winning group and its reply. Unmatched input yields
// GroupDefault and the local-mode fallback.
func (r *Responder) Match(userText string) (Group, models.Reply) {
	tokens := tokenize(userText)
	for _, g := range r.groups {
		if matchesAny(g.keywords, tokens) {
			return g.name, copyReply(g.reply)
		}
	}
	return GroupDefault, copyReply(r.fallback)
}

// Respond implements models.Responder.
func (r *Responder) Respond(userText string) models.Reply {
	_, reply := r.Match(userText)
	return reply
}

// copyReply keeps the compiled replies immutable across calls.
func copyReply(reply models.Reply) models.Reply {
	if reply.Action != nil {
		a := *reply.Action
		reply.Action = &a
	}
	return reply
}
