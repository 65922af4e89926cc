package tui

import (
	"fmt"
	"strings"

	"cashlens/internal/cli"
	"cashlens/internal/model"

	"github.com/charmbracelet/lipgloss"
)

// View renders the active screen.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	switch m.screen {
	case ScreenCamera:
		return m.camera.view()
	case ScreenCashFlow:
		return m.cashflow.view()
	default:
		return m.home.view()
	}
}

func (h homeModel) view() string {
	var b strings.Builder

	b.WriteString(cli.FormatTitle("CashLens"))
	b.WriteString("\n\n")

	for i, item := range menuItems {
		cursor := "  "
		line := item
		if i == h.cursor {
			cursor = "> "
			line = cli.ResultStyle.Render(item)
		}
		b.WriteString(cursor + line + "\n")
	}

	if h.status != "" {
		b.WriteString("\n")
		if h.acquiring {
			b.WriteString(cli.InfoStyle.Render(h.status))
		} else {
			b.WriteString(cli.FormatError(h.status))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n" + cli.SubtleStyle.Render("↑/↓ mover · enter seleccionar · q salir"))
	return b.String()
}

func (c cameraModel) view() string {
	var b strings.Builder

	b.WriteString(cli.TitleStyle.Render(cli.CameraIcon + " Detector de Billetes"))
	b.WriteString("\n\n")

	switch {
	case c.errMsg != "":
		b.WriteString(cli.RenderBox("Error", cli.ErrorStyle.Render(c.errMsg)+"\n\n"+cli.SubtleStyle.Render("enter reintentar")))
	case c.detection != nil:
		readout := cli.ResultStyle.Render(c.detection.DisplayLabel()) + "\n" +
			cli.InfoStyle.Render(fmt.Sprintf("%d%% de confianza", c.detection.ConfidencePercent()))
		b.WriteString(cli.RenderBox("Resultado", readout))
	default:
		b.WriteString(cli.RenderBox("Resultado", cli.SubtleStyle.Render(scanPrompt)))
	}

	if c.notice != "" {
		b.WriteString("\n" + cli.FormatSuccess(c.notice))
	}

	b.WriteString("\n\n" + cli.SubtleStyle.Render("enter continuar · s agregar a caja · esc volver"))
	return b.String()
}

func (c cashflowModel) view() string {
	var b strings.Builder

	b.WriteString(cli.TitleStyle.Render(cli.CashIcon + " Caja de Efectivo"))
	b.WriteString("\n\n")

	switch {
	case c.failErr != "":
		b.WriteString(cli.RenderBox("Error", cli.ErrorStyle.Render(c.failErr)+"\n\n"+cli.SubtleStyle.Render("r reintentar · esc volver")))
		return b.String()
	case c.loading:
		b.WriteString(c.spinner.View() + " Cargando caja...")
		return b.String()
	}

	balance := c.store.Balance()
	b.WriteString(cli.RenderBox("Saldo", cli.ResultStyle.Render("$ "+balance.Total.StringFixed(2))))
	b.WriteString("\n\n")

	b.WriteString(renderDenominations(c.store.Denominations()))
	b.WriteString("\n")
	b.WriteString(c.renderMovements())

	switch c.mode {
	case modeAdd:
		b.WriteString("\n" + c.renderForm("Nuevo movimiento"))
	case modeEdit:
		b.WriteString("\n" + c.renderForm("Editar monto"))
	case modeView:
		b.WriteString("\n" + cli.SubtleStyle.Render("a agregar · e editar · r actualizar · esc volver"))
	}

	return b.String()
}

func renderDenominations(denominations []model.Denomination) string {
	if len(denominations) == 0 {
		return cli.SubtleStyle.Render("Sin denominaciones") + "\n"
	}

	parts := make([]string, 0, len(denominations))
	for _, d := range denominations {
		parts = append(parts, fmt.Sprintf("$%s×%d", d.Value.StringFixed(0), d.Quantity))
	}
	return cli.InfoStyle.Render(strings.Join(parts, "  ")) + "\n"
}

func (c cashflowModel) renderMovements() string {
	movements := c.store.Movements()
	if len(movements) == 0 {
		return cli.SubtleStyle.Render("Sin movimientos") + "\n"
	}

	var b strings.Builder
	for i, movement := range movements {
		cursor := "  "
		if i == c.cursor && c.mode == modeView {
			cursor = "> "
		}
		b.WriteString(cursor + renderMovement(movement) + "\n")
	}
	return b.String()
}

func renderMovement(m model.Movement) string {
	sign := "+"
	style := cli.SuccessStyle
	if m.Type == model.MovementExpense {
		sign = "-"
		style = cli.ErrorStyle
	}

	origin := ""
	if m.Origin == model.OriginScan {
		origin = " " + cli.SubtleStyle.Render("(escaneo)")
	}

	return fmt.Sprintf("%s  %s%s",
		cli.SubtleStyle.Render(m.Date.Format("02 Jan 15:04")),
		style.Render(sign+"$"+m.Amount.StringFixed(2)),
		origin)
}

func (c cashflowModel) renderForm(title string) string {
	var lines []string

	if c.mode == modeAdd {
		income := "ingreso"
		expense := "gasto"
		if c.movementType == model.MovementIncome {
			income = cli.ResultStyle.Render("[ingreso]")
		} else {
			expense = cli.ResultStyle.Render("[gasto]")
		}
		lines = append(lines, income+"  "+expense+"  "+cli.SubtleStyle.Render("(tab cambia)"))
	}

	lines = append(lines, "Monto: "+c.amountInput.View())

	if c.formErr != "" {
		lines = append(lines, cli.ErrorStyle.Render(c.formErr))
	}
	if c.saving {
		lines = append(lines, c.spinner.View()+" Guardando...")
	}
	lines = append(lines, cli.SubtleStyle.Render("enter confirmar · esc cancelar"))

	return cli.BoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, cli.TitleStyle.UnsetMargins().Render(title), strings.Join(lines, "\n")))
}
