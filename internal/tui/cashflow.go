package tui

import (
	"context"
	"errors"
	"strings"

	"cashlens/internal/cashflow"
	"cashlens/internal/common"
	"cashlens/internal/model"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"
)

type cashflowMode int

const (
	modeView cashflowMode = iota
	modeAdd
	modeEdit
)

// cashflowModel is the cash box screen: balance, denomination breakdown, and
// movement history, plus the add/edit forms. A fetch failure puts the whole
// screen into a full-screen error view with retry and back.
type cashflowModel struct {
	store        *cashflow.Store
	failErr      string
	formErr      string
	amountInput  textinput.Model
	spinner      spinner.Model
	movementType model.MovementType
	mode         cashflowMode
	editID       int64
	cursor       int
	loading      bool
	saving       bool
}

// mountCashflow builds a fresh store and kicks off the initial load.
func mountCashflow(cfg Config) (cashflowModel, tea.Cmd) {
	input := textinput.New()
	input.Placeholder = "0.00"
	input.CharLimit = 12
	input.Width = 14

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	c := cashflowModel{
		store:        cfg.newStore(),
		amountInput:  input,
		spinner:      sp,
		movementType: model.MovementIncome,
		loading:      true,
	}
	return c, tea.Batch(c.spinner.Tick, loadCashflow(c.store))
}

// loadCashflow runs the full fetch set off the UI loop.
func loadCashflow(store *cashflow.Store) tea.Cmd {
	return func() tea.Msg {
		return cashflowLoadedMsg{err: store.Load(context.Background())}
	}
}

func (c cashflowModel) update(msg tea.Msg, keymap KeyMap) (cashflowModel, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if !c.loading && !c.saving {
			return c, nil
		}
		var cmd tea.Cmd
		c.spinner, cmd = c.spinner.Update(msg)
		return c, cmd

	case cashflowLoadedMsg:
		c.loading = false
		if msg.err != nil {
			c.failErr = common.UserMessage(msg.err)
		} else {
			c.failErr = ""
		}
		return c, nil

	case movementSavedMsg:
		c.saving = false
		if msg.err != nil {
			if errors.Is(msg.err, common.ErrValidation) {
				// Inline next to the field; the form stays open.
				c.formErr = common.UserMessage(msg.err)
				return c, nil
			}
			c.failErr = common.UserMessage(msg.err)
			c.mode = modeView
			return c, nil
		}
		c.mode = modeView
		c.formErr = ""
		c.amountInput.Reset()
		return c, nil

	case tea.KeyMsg:
		if c.mode == modeView {
			return c.updateView(msg, keymap)
		}
		return c.updateForm(msg, keymap)
	}

	return c, nil
}

func (c cashflowModel) updateView(msg tea.KeyMsg, keymap KeyMap) (cashflowModel, tea.Cmd) {
	if c.failErr != "" {
		// Full-screen error view: retry re-runs the full load, esc abandons.
		if key.Matches(msg, keymap.Refresh) {
			c.failErr = ""
			c.loading = true
			return c, tea.Batch(c.spinner.Tick, loadCashflow(c.store))
		}
		return c, nil
	}
	if c.loading {
		return c, nil
	}

	movements := c.store.Movements()

	switch {
	case key.Matches(msg, keymap.Up):
		if c.cursor > 0 {
			c.cursor--
		}
	case key.Matches(msg, keymap.Down):
		if c.cursor < len(movements)-1 {
			c.cursor++
		}
	case key.Matches(msg, keymap.Refresh):
		c.loading = true
		return c, tea.Batch(c.spinner.Tick, loadCashflow(c.store))
	case key.Matches(msg, keymap.Add):
		c.mode = modeAdd
		c.movementType = model.MovementIncome
		c.formErr = ""
		c.amountInput.Reset()
		c.amountInput.Focus()
		return c, textinput.Blink
	case key.Matches(msg, keymap.Edit):
		if c.cursor < len(movements) {
			selected := movements[c.cursor]
			c.mode = modeEdit
			c.editID = selected.ID
			c.formErr = ""
			c.amountInput.SetValue(selected.Amount.String())
			c.amountInput.Focus()
			return c, textinput.Blink
		}
	}
	return c, nil
}

func (c cashflowModel) updateForm(msg tea.KeyMsg, keymap KeyMap) (cashflowModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keymap.Back):
		c.mode = modeView
		c.formErr = ""
		c.amountInput.Reset()
		return c, nil

	case key.Matches(msg, keymap.Toggle):
		if c.mode == modeAdd {
			if c.movementType == model.MovementIncome {
				c.movementType = model.MovementExpense
			} else {
				c.movementType = model.MovementIncome
			}
		}
		return c, nil

	case key.Matches(msg, keymap.Select):
		return c.submit()
	}

	var cmd tea.Cmd
	c.amountInput, cmd = c.amountInput.Update(msg)
	return c, cmd
}

// submit validates the amount field and issues the mutation. Validation
// failures stay inline and never reach the network; the store enforces the
// same rules again before its calls.
func (c cashflowModel) submit() (cashflowModel, tea.Cmd) {
	raw := strings.TrimSpace(c.amountInput.Value())
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		c.formErr = "Monto inválido"
		return c, nil
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		c.formErr = "El monto debe ser positivo"
		return c, nil
	}

	c.formErr = ""
	c.saving = true

	switch c.mode {
	case modeAdd:
		movementType := c.movementType
		store := c.store
		return c, tea.Batch(c.spinner.Tick, func() tea.Msg {
			return movementSavedMsg{err: store.AddMovement(context.Background(), amount, movementType)}
		})
	case modeEdit:
		id := c.editID
		store := c.store
		return c, tea.Batch(c.spinner.Tick, func() tea.Msg {
			return movementSavedMsg{err: store.EditMovement(context.Background(), id, amount)}
		})
	case modeView:
	}
	return c, nil
}
