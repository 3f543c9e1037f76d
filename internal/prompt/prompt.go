// Package prompt asks the user to confirm actions and to choose resources
// from numbered menus.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/yaroslav/gcompute/models"
)

// ErrNoInput is returned when input ends before a valid selection was made.
var ErrNoInput = errors.New("no selection made")

const (
	inputPrompt       = ">>> "
	deprecatedSuffix  = " (DEPRECATED)"
	deprecatedKey     = "deprecated"
	deprecatedWarning = "Warning: %s is deprecated!"
)

// machineTypeOrdering lists machine type families from cheapest to most
// expensive.
var machineTypeOrdering = []string{"standard", "highcpu", "highmem"}

// Prompter reads answers from In and writes questions to Out.
type Prompter struct {
	in     *bufio.Reader
	out    io.Writer
	logger *zap.Logger
}

// New creates a Prompter.
func New(in io.Reader, out io.Writer, logger *zap.Logger) *Prompter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Prompter{in: bufio.NewReader(in), out: out, logger: logger}
}

// readLine returns the next line without its line ending. io.EOF is only
// returned when no characters were read.
func (p *Prompter) readLine(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	line, err := p.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// SafetyPrompt asks the user to confirm a dangerous action such as a
// delete. Any answer not starting with y or Y declines, as does an empty
// answer or closed input.
func (p *Prompter) SafetyPrompt(prompt string, args []string) bool {
	if len(args) > 0 {
		prompt = fmt.Sprintf("%s %s", prompt, strings.Join(args, ", "))
	}
	fmt.Fprintf(p.out, "%s? [y/N]\n", prompt)

	answer, err := p.readLine(inputPrompt)
	if err != nil || answer == "" {
		answer = "n"
	}
	answer = strings.TrimLeft(answer, " \t")
	return strings.HasPrefix(strings.ToLower(answer), "y")
}

// Proceed asks "<message> Proceed? [y/N] " and reports whether the user
// answered y.
func (p *Prompter) Proceed(message string) bool {
	question := strings.TrimLeft(message+" Proceed? [y/N] ", " ")
	answer, err := p.readLine(question)
	if err != nil {
		return false
	}
	return strings.ToLower(strings.TrimSpace(answer)) == "y"
}

// ChoiceOptions tune how Choose builds its menu.
type ChoiceOptions struct {
	// AutoSelect picks the only choice without asking.
	AutoSelect bool

	// Text returns the menu text of a choice. Defaults to the last segment
	// of the resource name.
	Text func(models.Resource) string

	// SortScore, when set, orders choices before their text does.
	SortScore func(text string) int
}

type choice struct {
	text     string
	resource models.Resource
}

// Choose lets the user pick one of choices from a numbered menu.
//
// Parameters:
//   - choices: Candidate resources
//   - collection: Singular collection name used in messages (e.g., "zone")
//   - opts: Menu options
//
// Returns:
//   - models.Resource: The chosen resource, or nil when choices is empty
//   - error: ErrNoInput if input ended before a valid answer
func (p *Prompter) Choose(choices []models.Resource, collection string, opts ChoiceOptions) (models.Resource, error) {
	if len(choices) == 0 {
		return nil, nil
	}

	text := opts.Text
	if text == nil {
		text = func(r models.Resource) string {
			name := r.Name()
			return name[strings.LastIndex(name, "/")+1:]
		}
	}

	if opts.AutoSelect && len(choices) == 1 {
		only := choices[0]
		fmt.Fprintf(p.out, "Selecting the only available %s: %s\n", collection, only.Name())
		if _, ok := only[deprecatedKey]; ok {
			p.logger.Warn(fmt.Sprintf(deprecatedWarning, only.Name()))
		}
		return only, nil
	}

	var current, deprecated []choice
	for _, r := range choices {
		if _, ok := r[deprecatedKey]; !ok {
			current = append(current, choice{text: text(r), resource: r})
			continue
		}
		if r.DeprecationState() == models.DeprecationStateDeprecated {
			deprecated = append(deprecated, choice{text: text(r) + deprecatedSuffix, resource: r})
		}
	}

	sort.SliceStable(current, func(i, j int) bool {
		if opts.SortScore != nil {
			si, sj := opts.SortScore(current[i].text), opts.SortScore(current[j].text)
			if si != sj {
				return si < sj
			}
		}
		return current[i].text < current[j].text
	})
	sort.SliceStable(deprecated, func(i, j int) bool {
		return deprecated[i].text < deprecated[j].text
	})
	menu := append(current, deprecated...)

	for i, c := range menu {
		fmt.Fprintf(p.out, "%d: %s\n", i+1, c.text)
	}

	selection, err := p.readSelection(len(menu), collection+"s")
	if err != nil {
		return nil, err
	}
	return menu[selection-1].resource, nil
}

// readSelection reads until the answer is a number between 1 and n.
func (p *Prompter) readSelection(n int, menuName string) (int, error) {
	for {
		answer, err := p.readLine(inputPrompt)
		if err != nil {
			return 0, ErrNoInput
		}
		if selection, err := strconv.Atoi(strings.TrimSpace(answer)); err == nil && selection >= 1 && selection <= n {
			return selection, nil
		}
		fmt.Fprintf(p.out, "Invalid selection, please choose one of the listed %s\n", menuName)
	}
}

// MachineTypeSortScore ranks machine types so cheaper families are listed
// first.
func MachineTypeSortScore(name string) int {
	for i, family := range machineTypeOrdering {
		if strings.Contains(name, family) {
			return i
		}
	}
	return len(machineTypeOrdering)
}
