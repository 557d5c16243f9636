package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mhagberg/voltflow/internal/model"
	"github.com/mhagberg/voltflow/internal/service"
)

// ErrReviewCancelled is returned when the user abandons the correction
// workflow without resolving it.
var ErrReviewCancelled = errors.New("review canceled")

// Prompter implements the interactive line-based correction workflow: it
// walks the flagged rows one by one and collects a correction directive for
// each decision.
type Prompter struct {
	startTime time.Time
	writer    io.Writer
	reader    *NonBlockingReader
	stats     service.ReviewStats
}

// NewPrompter creates a prompter with the given reader and writer.
func NewPrompter(reader io.Reader, writer io.Writer) *Prompter {
	if reader == nil {
		reader = os.Stdin
	}
	if writer == nil {
		writer = os.Stdout
	}

	return &Prompter{
		reader:    NewNonBlockingReader(reader),
		writer:    writer,
		startTime: time.Now(),
	}
}

// Review walks the anomaly list and returns the user's per-row decisions.
// Implements service.Reviewer.
func (p *Prompter) Review(ctx context.Context, pending []model.TripRecord, anomalies []model.Anomaly) ([]model.CorrectionDirective, error) {
	byRow := make(map[int][]model.Anomaly)
	var flagged []int
	for _, anomaly := range anomalies {
		if _, seen := byRow[anomaly.TripIndex]; !seen {
			flagged = append(flagged, anomaly.TripIndex)
		}
		byRow[anomaly.TripIndex] = append(byRow[anomaly.TripIndex], anomaly)
	}

	p.stats = service.ReviewStats{Flagged: len(flagged)}
	p.startTime = time.Now()

	var directives []model.CorrectionDirective
	for n, index := range flagged {
		rec := pending[index]

		title := fmt.Sprintf("Flagged Trip %d/%d (row %d)", n+1, len(flagged), index)
		if _, err := fmt.Fprintln(p.writer, RenderBox(title, p.formatTrip(rec, byRow[index]))); err != nil {
			return nil, fmt.Errorf("failed to write trip box: %w", err)
		}

		fmt.Fprintln(p.writer, "  [K] Keep row as-is")
		fmt.Fprintln(p.writer, "  [E] Edit flagged fields")
		fmt.Fprintln(p.writer, "  [S] Skip (drop) this row")
		fmt.Fprintln(p.writer, "  [X] Skip all remaining flagged rows")
		fmt.Fprintln(p.writer, "  [Q] Abandon correction")
		fmt.Fprintln(p.writer)

		choice, err := p.promptChoice(ctx, "Choice", []string{"k", "e", "s", "x", "q"})
		if err != nil {
			return nil, err
		}

		switch choice {
		case "q":
			return nil, ErrReviewCancelled
		case "k":
			p.stats.Kept++
		case "s":
			directives = append(directives, model.CorrectionDirective{
				TripIndex: index,
				Action:    model.ActionSkip,
			})
			p.stats.Skipped++
		case "x":
			for _, rest := range flagged[n:] {
				directives = append(directives, model.CorrectionDirective{
					TripIndex: rest,
					Action:    model.ActionSkip,
				})
				p.stats.Skipped++
			}
			p.stats.Duration = time.Since(p.startTime)
			return directives, nil
		case "e":
			patch, patchErr := p.promptPatch(ctx, rec, byRow[index])
			if patchErr != nil {
				return nil, patchErr
			}
			if patch.IsEmpty() {
				p.stats.Kept++
				continue
			}
			directives = append(directives, model.CorrectionDirective{
				TripIndex: index,
				Action:    model.ActionCorrect,
				Patch:     patch,
			})
			p.stats.Corrected++
		}
	}

	p.stats.Duration = time.Since(p.startTime)
	return directives, nil
}

// Stats returns the result of the last review.
func (p *Prompter) Stats() service.ReviewStats {
	return p.stats
}

// ShowCompletion prints a summary after a correction cycle.
func (p *Prompter) ShowCompletion() {
	fmt.Fprintln(p.writer)
	fmt.Fprintln(p.writer, FormatSuccess(fmt.Sprintf(
		"Correction complete: %d flagged, %d corrected, %d skipped, %d kept (%s)",
		p.stats.Flagged, p.stats.Corrected, p.stats.Skipped, p.stats.Kept,
		p.stats.Duration.Round(time.Second))))
}

// formatTrip renders one flagged row and its anomalies for the review box.
func (p *Prompter) formatTrip(rec model.TripRecord, anomalies []model.Anomaly) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Start:     %s\n", formatTimeValue(rec, model.FieldStartTime)))
	sb.WriteString(fmt.Sprintf("End:       %s\n", formatTimeValue(rec, model.FieldEndTime)))
	sb.WriteString(fmt.Sprintf("Odometer:  %s → %s km\n",
		formatNumberValue(rec, model.FieldOdometerStart),
		formatNumberValue(rec, model.FieldOdometerEnd)))
	sb.WriteString(fmt.Sprintf("Distance:  %s km\n", formatNumberValue(rec, model.FieldDistance)))
	sb.WriteString(fmt.Sprintf("Energy:    %s kWh\n", formatNumberValue(rec, model.FieldEnergy)))
	if eff, ok := rec.Efficiency(); ok {
		sb.WriteString(fmt.Sprintf("Efficiency: %.1f kWh/100km\n", eff))
	}

	sb.WriteString("\n")
	for _, anomaly := range anomalies {
		style := WarningStyle
		if anomaly.Severity == model.SeverityError {
			style = ErrorStyle
		}
		sb.WriteString(style.Render(WarningIcon+" "+anomaly.Description) + "\n")
	}

	return strings.TrimRight(sb.String(), "\n")
}

// promptPatch asks for a replacement value for every flagged field. Blank
// input keeps the original value.
func (p *Prompter) promptPatch(ctx context.Context, rec model.TripRecord, anomalies []model.Anomaly) (*model.TripPatch, error) {
	fields := flaggedFields(anomalies)
	patch := &model.TripPatch{}

	fmt.Fprintln(p.writer, SubtleStyle.Render("Enter a new value per field, or leave blank to keep the original."))

	for _, field := range fields {
		for {
			fmt.Fprintf(p.writer, "  %s [%s]: ", field, currentValue(rec, field))

			line, err := p.reader.ReadLine(ctx)
			if err != nil {
				return nil, err
			}
			if line == "" {
				break
			}

			if parseErr := patch.SetField(field, line); parseErr != nil {
				fmt.Fprintln(p.writer, FormatError(parseErr.Error()))
				continue
			}
			break
		}
	}

	return patch, nil
}

// promptChoice reads input until it matches one of the valid choices.
func (p *Prompter) promptChoice(ctx context.Context, prompt string, validChoices []string) (string, error) {
	for {
		fmt.Fprint(p.writer, FormatPrompt(prompt))

		line, err := p.reader.ReadLine(ctx)
		if err != nil {
			return "", err
		}

		choice := strings.ToLower(strings.TrimSpace(line))
		for _, valid := range validChoices {
			if choice == valid {
				return choice, nil
			}
		}

		fmt.Fprintln(p.writer, FormatWarning(fmt.Sprintf(
			"Please enter one of: %s", strings.ToUpper(strings.Join(validChoices, ", ")))))
	}
}

// flaggedFields returns the distinct fields named by a row's anomalies,
// preserving detection order.
func flaggedFields(anomalies []model.Anomaly) []model.Field {
	var fields []model.Field
	seen := make(map[model.Field]bool)
	for _, anomaly := range anomalies {
		if anomaly.Field == "" || seen[anomaly.Field] {
			continue
		}
		seen[anomaly.Field] = true
		fields = append(fields, anomaly.Field)
	}
	return fields
}

func formatTimeValue(rec model.TripRecord, field model.Field) string {
	if !rec.Present.Has(field) {
		return SubtleStyle.Render("(missing)")
	}
	if field == model.FieldStartTime {
		return rec.StartTime.Format(model.PatchTimeLayout)
	}
	return rec.EndTime.Format(model.PatchTimeLayout)
}

func formatNumberValue(rec model.TripRecord, field model.Field) string {
	if !rec.Present.Has(field) {
		return SubtleStyle.Render("(missing)")
	}
	switch field {
	case model.FieldOdometerStart:
		return strconv.FormatFloat(rec.OdometerStart, 'f', -1, 64)
	case model.FieldOdometerEnd:
		return strconv.FormatFloat(rec.OdometerEnd, 'f', -1, 64)
	case model.FieldDistance:
		return strconv.FormatFloat(rec.DistanceKm, 'f', -1, 64)
	case model.FieldEnergy:
		return strconv.FormatFloat(rec.EnergyKWh, 'f', -1, 64)
	default:
		return ""
	}
}

func currentValue(rec model.TripRecord, field model.Field) string {
	if !rec.Present.Has(field) {
		return "missing"
	}
	switch field {
	case model.FieldStartTime, model.FieldEndTime:
		return formatTimeValue(rec, field)
	default:
		return formatNumberValue(rec, field)
	}
}

