// Package knowledge holds the fixed company knowledge base shared by the
// offline responder and the remote system instruction.
package knowledge

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/defendhub/sentinel/models"
	"gopkg.in/yaml.v3"
)

//go:embed knowledge.yaml
var knowledgeYAML []byte

type Company struct {
	Name           string `yaml:"name"`
	Assistant      string `yaml:"assistant"`
	HQ             string `yaml:"hq"`
	Email          string `yaml:"email"`
	PGP            string `yaml:"pgp"`
	EmergencyPhone string `yaml:"emergency_phone"`
	SOC            string `yaml:"soc"`
}

type Service struct {
	ID    string   `yaml:"id"`
	Title string   `yaml:"title"`
	Specs []string `yaml:"specs"`
}

// Case is a portfolio case study with the keywords that select it offline.
type Case struct {
	ID        string   `yaml:"id"`
	Title     string   `yaml:"title"`
	Sector    string   `yaml:"sector"`
	Highlight string   `yaml:"highlight"`
	Keywords  []string `yaml:"keywords"`
}

// Route is the case detail page.
func (c Case) Route() models.Route {
	return models.CaseRoute(c.ID)
}

type Base struct {
	Company  Company   `yaml:"company"`
	Services []Service `yaml:"services"`
	Cases    []Case    `yaml:"cases"`
}

// ServiceTitles lists the catalog titles in declaration order.
func (b *Base) ServiceTitles() []string {
	titles := make([]string, len(b.Services))
	for i, s := range b.Services {
		titles[i] = s.Title
	}
	return titles
}

// GeneralInquiry is the contact form's catch-all service choice.
const GeneralInquiry = "General Inquiry"

// HasService reports whether title names a catalog service.
func (b *Base) HasService(title string) bool {
	for _, s := range b.Services {
		if s.Title == title {
			return true
		}
	}
	return false
}

var (
	defaultBase *Base
	loadOnce    sync.Once
)

// Default returns the embedded knowledge base. It panics if the embedded
// document is broken, which can only happen at build time.
func Default() *Base {
	loadOnce.Do(func() {
		b, err := Parse(knowledgeYAML)
		if err != nil {
			panic("invalid embedded knowledge base: " + err.Error())
		}
		defaultBase = b
	})
	return defaultBase
}

// Parse decodes and validates a knowledge base document.
func Parse(data []byte) (*Base, error) {
	var b Base
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("failed to decode knowledge base: %w", err)
	}
	if b.Company.HQ == "" || b.Company.Email == "" {
		return nil, fmt.Errorf("knowledge base is missing company contact details")
	}
	for _, c := range b.Cases {
		if !models.IsValidRoute(string(c.Route())) {
			return nil, fmt.Errorf("case %s: %w", c.ID, models.ErrInvalidRoute)
		}
		if len(c.Keywords) == 0 {
			return nil, fmt.Errorf("case %s has no keywords", c.ID)
		}
	}
	return &b, nil
}
