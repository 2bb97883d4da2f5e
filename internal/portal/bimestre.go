package portal

import (
	"context"
	"fmt"
	"time"
)

// SelectBimestre picks the assessment period on a subject page and waits for
// the hidden filter field to reflect it.
func SelectBimestre(ctx context.Context, page Page, bimestre string, timeout time.Duration) error {
	if err := page.WaitFor(ctx, fmt.Sprintf(selBimestreOption, bimestre), timeout); err != nil {
		return fmt.Errorf("erro ao selecionar bimestre %s: %w", bimestre, err)
	}
	if err := page.Select(ctx, SelBimestre, bimestre); err != nil {
		return fmt.Errorf("erro ao selecionar bimestre %s: %w", bimestre, err)
	}
	if err := page.WaitFor(ctx, fmt.Sprintf(selBimestreApplied, bimestre), timeout); err != nil {
		return fmt.Errorf("bimestre %s não confirmado pelo portal: %w", bimestre, err)
	}
	return nil
}

// SubjectViewSelector returns the positional locator of the subject row.
func SubjectViewSelector(position int) string {
	return fmt.Sprintf(selSubjectView, position)
}
