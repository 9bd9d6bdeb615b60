package ingest

import (
	"context"
	"fmt"
	"strings"

	"github.com/joe-antognini/zoia/internal/metadata"
	"gopkg.in/yaml.v3"
)

const metadataTemplate = `title:
authors:
    -
year:
`

// enterMetadata asks the user to fill in a YAML template until it validates
// or they give up.
func (p *Pipeline) enterMetadata(ctx context.Context) (metadata.Metadatum, error) {
	if p.prompter == nil {
		return metadata.Metadatum{}, ErrAborted
	}

	text := metadataTemplate
	for {
		edited, err := p.prompter.Edit(ctx, text)
		if err != nil {
			return metadata.Metadatum{}, fmt.Errorf("editing metadata: %w", err)
		}

		m, err := parseMetadata(edited)
		if err == nil {
			return m, nil
		}

		again, cerr := p.prompter.Confirm(ctx, fmt.Sprintf("Invalid metadata: %v. Try again?", err))
		if cerr != nil {
			return metadata.Metadatum{}, cerr
		}
		if !again {
			return metadata.Metadatum{}, ErrAborted
		}
		text = withErrorComment(stripComments(edited), err)
	}
}

func parseMetadata(text string) (metadata.Metadatum, error) {
	var fields map[string]any
	if err := yaml.Unmarshal([]byte(text), &fields); err != nil {
		return metadata.Metadatum{}, fmt.Errorf("%w: %v", metadata.ErrMalformed, err)
	}
	if fields == nil {
		return metadata.Metadatum{}, &metadata.FieldError{Field: metadata.FieldTitle, Reason: "is missing"}
	}
	return metadata.FromMap(fields)
}

func withErrorComment(text string, err error) string {
	return "# " + err.Error() + "\n" + text
}

// stripComments drops leading comment lines added by an earlier attempt.
func stripComments(text string) string {
	for strings.HasPrefix(text, "#") {
		i := strings.IndexByte(text, '\n')
		if i < 0 {
			return ""
		}
		text = text[i+1:]
	}
	return text
}
