package portal

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrNoClasses       = errors.New("nenhuma turma encontrada para este usuário")
	ErrClassOutOfRange = errors.New("turma informada não existe")
)

const studentPageSize = "100"

// Roster reads classes and students from the "Minhas Turmas" grid.
type Roster struct {
	elementTimeout time.Duration
}

// NewRoster builds a Roster with the given element wait bound.
func NewRoster(elementTimeout time.Duration) *Roster {
	if elementTimeout <= 0 {
		elementTimeout = 30 * time.Second
	}
	return &Roster{elementTimeout: elementTimeout}
}

// Classes lists the class names shown in the grid, in display order.
func (r *Roster) Classes(ctx context.Context, page Page) ([]string, error) {
	if err := page.WaitFor(ctx, SelClassTable, r.elementTimeout); err != nil {
		return nil, fmt.Errorf("erro ao buscar turmas: %w", err)
	}
	html, err := page.HTML(ctx, SelClassTable)
	if err != nil {
		return nil, fmt.Errorf("erro ao buscar turmas: %w", err)
	}
	classes, err := Column(html, 3)
	if err != nil {
		return nil, fmt.Errorf("erro ao buscar turmas: %w", err)
	}
	if len(classes) == 0 {
		return nil, ErrNoClasses
	}
	return classes, nil
}

// Students opens the class at the 1-based index and lists its students.
func (r *Roster) Students(ctx context.Context, page Page, index int) ([]string, error) {
	if err := page.WaitFor(ctx, SelClassTable, r.elementTimeout); err != nil {
		return nil, fmt.Errorf("erro ao buscar turmas: %w", err)
	}
	total, err := page.Count(ctx, SelClassRows)
	if err != nil {
		return nil, fmt.Errorf("erro ao buscar turmas: %w", err)
	}
	if index < 1 || index > total {
		return nil, fmt.Errorf("%w: %d de %d", ErrClassOutOfRange, index, total)
	}

	if err := page.Click(ctx, fmt.Sprintf(selClassStudents, index)); err != nil {
		return nil, fmt.Errorf("erro ao selecionar turma %d: %w", index, err)
	}
	if err := page.WaitFor(ctx, SelStudentTable, r.elementTimeout); err != nil {
		return nil, fmt.Errorf("erro ao selecionar turma %d: %w", index, err)
	}
	if err := page.Select(ctx, SelStudentSize, studentPageSize); err != nil {
		return nil, fmt.Errorf("erro ao selecionar turma %d: %w", index, err)
	}

	html, err := page.HTML(ctx, SelStudentTable)
	if err != nil {
		return nil, fmt.Errorf("erro ao buscar alunos: %w", err)
	}
	students, err := Column(html, 2)
	if err != nil {
		return nil, fmt.Errorf("erro ao buscar alunos: %w", err)
	}
	return students, nil
}
