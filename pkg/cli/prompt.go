package cli

import (
	"errors"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/recordd/recordd/pkg/config"
)

// isInteractive is a test seam for the terminal check on stdin.
var isInteractive = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// promptRecord is a test seam for the interactive add form.
var promptRecord = runRecordForm

// runRecordForm asks for the kind of record, then for its fields.
func runRecordForm(path string) (map[string]any, error) {
	kind := config.KindNote
	if strings.Contains(path, "person") || strings.Contains(path, "phonebook") {
		kind = config.KindPerson
	}

	title := cases.Title(language.English)
	var options []huh.Option[string]
	for _, k := range []string{config.KindNote, config.KindPerson} {
		options = append(options, huh.NewOption(title.String(k), k))
	}

	err := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("What kind of record is this?").
				Options(options...).
				Value(&kind),
		),
	).Run()
	if err != nil {
		return nil, err
	}

	required := func(field string) func(string) error {
		return func(s string) error {
			if s == "" {
				return errors.New(field + " is required")
			}
			return nil
		}
	}

	if kind == config.KindPerson {
		var name, number string
		err := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Name").
					Placeholder("Arto Hellas").
					Value(&name).
					Validate(required("name")),
				huh.NewInput().
					Title("Number").
					Placeholder("040-123456").
					Value(&number),
			),
		).Run()
		if err != nil {
			return nil, err
		}
		return map[string]any{"name": name, "number": number}, nil
	}

	var content string
	var important bool
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewText().
				Title("Content").
				Value(&content).
				Validate(required("content")),
			huh.NewConfirm().
				Title("Important?").
				Value(&important),
		),
	).Run()
	if err != nil {
		return nil, err
	}
	return map[string]any{"content": content, "important": important}, nil
}
