package offline

import (
	"testing"

	"github.com/defendhub/sentinel/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespond_Deterministic(t *testing.T) {
	r := Default()
	first := r.Respond("Do you have pentesting services?")
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, r.Respond("Do you have pentesting services?"))
	}
	require.NotNil(t, first.Action)
	assert.Equal(t, string(models.RouteServices), first.Action.Path)
}

func TestRespond_ReturnedReplyIsNotShared(t *testing.T) {
	r := Default()
	reply := r.Respond("aramco")
	require.NotNil(t, reply.Action)
	reply.Action.Path = "/elsewhere"

	again := r.Respond("aramco")
	assert.Equal(t, "/portfolio/p1", again.Action.Path)
}

func TestMatch_Groups(t *testing.T) {
	tests := []struct {
		input string
		group Group
		path  string
	}{
		{"who are you?", GroupIdentity, ""},
		{"Are you a BOT", GroupIdentity, ""},
		{"hello there", GroupGreeting, ""},
		{"Hey", GroupGreeting, ""},
		{"show me the menu", GroupHelp, "/services"},
		{"Do you have pentesting services?", GroupServices, "/services"},
		{"we need an ISO audit", GroupServices, "/services"},
		{"how much does it cost", GroupContact, "/contact"},
		{"can I get a quote", GroupContact, "/contact"},
		{"where is your office", GroupLocation, "/contact"},
		{"We were breached last night", GroupEmergency, "/contact"},
		{"EMERGENCY", GroupEmergency, "/contact"},
		{"aramco", CaseGroup("p1"), "/portfolio/p1"},
		{"do you work with banks", CaseGroup("p2"), "/portfolio/p2"},
		{"NEOM", CaseGroup("p3"), "/portfolio/p3"},
		{"government projects", CaseGroup("p4"), "/portfolio/p4"},
		{"drones", CaseGroup("p5"), "/portfolio/p5"},
		{"show me your case studies", GroupPortfolio, "/portfolio"},
		{"any jobs available", GroupCareers, "/about"},
		{"asdkjasd", GroupDefault, "/contact"},
	}

	r := Default()
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			group, reply := r.Match(tt.input)
			assert.Equal(t, tt.group, group)
			assert.NotEmpty(t, reply.Text)
			if tt.path == "" {
				assert.Nil(t, reply.Action)
				return
			}
			require.NotNil(t, reply.Action)
			assert.Equal(t, tt.path, reply.Action.Path)
		})
	}
}

func TestMatch_EmergencyWinsOverHelp(t *testing.T) {
	group, reply := Default().Match("I need help, we were hacked")
	assert.Equal(t, GroupEmergency, group)
	require.NotNil(t, reply.Action)
	assert.Equal(t, "REPORT INCIDENT", reply.Action.Label)
	assert.Equal(t, "/contact", reply.Action.Path)
}

func TestMatch_EmergencyInsideCompoundWords(t *testing.T) {
	for _, input := range []string{"we suffered a cyberattack", "Possible DATABREACH", "our site was cyberhacked"} {
		group, reply := Default().Match(input)
		assert.Equal(t, GroupEmergency, group, input)
		require.NotNil(t, reply.Action, input)
		assert.Equal(t, "REPORT INCIDENT", reply.Action.Label)
		assert.Equal(t, "/contact", reply.Action.Path)
	}
}

func TestMatch_DefenseFollowUpIsNotACase(t *testing.T) {
	// The greeting asks about "defense protocols"; echoing it must not open p5.
	group, reply := Default().Match("defense protocols please")
	assert.NotEqual(t, CaseGroup("p5"), group)
	if reply.Action != nil {
		assert.NotEqual(t, "/portfolio/p5", reply.Action.Path)
	}

	group, _ = Default().Match("military drones")
	assert.Equal(t, CaseGroup("p5"), group)
}

func TestMatch_FirstGroupWins(t *testing.T) {
	// "hi" (greeting) and "services" both match; greeting is declared first.
	group, _ := Default().Match("hi, what services do you offer")
	assert.Equal(t, GroupGreeting, group)

	// A specific case outranks the generic portfolio group.
	group, _ = Default().Match("tell me about the aramco case")
	assert.Equal(t, CaseGroup("p1"), group)
}

func TestMatch_WholeWordsOnly(t *testing.T) {
	// "this" contains "hi" and "email" contains "ai"; neither is a whole word.
	group, _ := Default().Match("this email")
	assert.Equal(t, GroupContact, group)
}

func TestRespond_Location(t *testing.T) {
	reply := Default().Respond("where is your office")
	assert.Contains(t, reply.Text, "Victoria Island, Lagos")
	require.NotNil(t, reply.Action)
	assert.Equal(t, "VIEW MAP", reply.Action.Label)
	assert.Equal(t, "/contact", reply.Action.Path)
}

func TestRespond_Fallback(t *testing.T) {
	reply := Default().Respond("asdkjasd")
	assert.Contains(t, reply.Text, "local mode")
	require.NotNil(t, reply.Action)
	assert.Equal(t, "/contact", reply.Action.Path)
}

func TestRespond_EmptyInputFallsBack(t *testing.T) {
	group, _ := Default().Match("   ")
	assert.Equal(t, GroupDefault, group)
}

func TestRespond_AllActionsUseValidRoutes(t *testing.T) {
	r := Default()
	for _, g := range r.groups {
		if g.reply.Action != nil {
			assert.NoError(t, g.reply.Action.Validate(), "group %s", g.name)
		}
	}
	require.NotNil(t, r.fallback.Action)
	assert.NoError(t, r.fallback.Action.Validate())
}
