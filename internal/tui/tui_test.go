package tui

import (
	"context"
	"sync"
	"testing"
	"time"

	"cashlens/internal/capture"
	"cashlens/internal/common"
	"cashlens/internal/model"
	"cashlens/internal/scanner"
	"cashlens/internal/service"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDevice struct {
	closeCalls int
	mu         sync.Mutex
}

func (d *fakeDevice) Open(context.Context, service.Constraints) error { return nil }

func (d *fakeDevice) Grab(context.Context) (model.Frame, error) {
	return model.Frame{Data: []byte{0xff, 0xd8}, Width: 2, Height: 2}, nil
}

func (d *fakeDevice) ReadyState() service.ReadyState { return service.ReadyEnoughData }

func (d *fakeDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closeCalls++
	return nil
}

func (d *fakeDevice) closed() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closeCalls
}

type fakePredictor struct {
	prediction model.Prediction
	err        error
}

func (p *fakePredictor) Predict(context.Context, model.Frame) (model.Prediction, error) {
	if p.err != nil {
		return model.Prediction{}, p.err
	}
	return p.prediction, nil
}

func (p *fakePredictor) Ping(context.Context) error { return nil }

// recordingAnnouncer captures announcement texts.
type recordingAnnouncer struct {
	texts []string
	mu    sync.Mutex
}

func (a *recordingAnnouncer) Available() bool { return true }

func (a *recordingAnnouncer) Announce(_ context.Context, text string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.texts = append(a.texts, text)
}

func (a *recordingAnnouncer) announced() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.texts))
	copy(out, a.texts)
	return out
}

type fakeCashflowAPI struct {
	scanValues []decimal.Decimal
	scanErr    error
	mu         sync.Mutex
}

func (f *fakeCashflowAPI) Balance(context.Context) (model.Balance, error) {
	return model.Balance{}, nil
}

func (f *fakeCashflowAPI) Denominations(context.Context) ([]model.Denomination, error) {
	return nil, nil
}

func (f *fakeCashflowAPI) Movements(context.Context) ([]model.Movement, error) {
	return nil, nil
}

func (f *fakeCashflowAPI) AddMovement(context.Context, decimal.Decimal, model.MovementType) (model.Balance, error) {
	return model.Balance{}, nil
}

func (f *fakeCashflowAPI) EditMovement(context.Context, int64, decimal.Decimal) (model.Movement, error) {
	return model.Movement{}, nil
}

func (f *fakeCashflowAPI) AddFromScan(_ context.Context, value decimal.Decimal) (model.Balance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.scanErr != nil {
		return model.Balance{}, f.scanErr
	}
	f.scanValues = append(f.scanValues, value)
	return model.Balance{Total: value}, nil
}

func testConfig(device *fakeDevice) Config {
	return Config{
		Camera:       capture.NewManager(func() service.Device { return device }),
		Predictor:    &fakePredictor{},
		Announcer:    &recordingAnnouncer{},
		CashFlow:     &fakeCashflowAPI{},
		Threshold:    0.85,
		ScanInterval: time.Hour, // tests drive results by hand
	}
}

func acquireSession(t *testing.T, cfg Config) *capture.Session {
	t.Helper()
	session, err := cfg.Camera.Acquire(context.Background(), cfg.Constraints)
	require.NoError(t, err)
	return session
}

// runCmd executes a command tree and flattens the produced messages.
func runCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	batch, ok := msg.(tea.BatchMsg)
	if !ok {
		return []tea.Msg{msg}
	}
	var msgs []tea.Msg
	for _, c := range batch {
		msgs = append(msgs, runCmd(c)...)
	}
	return msgs
}

// startShell runs Init and feeds its messages back through Update, the way
// the bubbletea runtime would.
func startShell(cfg Config) Model {
	shell := newModel(cfg)
	for _, msg := range runCmd(shell.Init()) {
		updated, _ := shell.Update(msg)
		shell = updated.(Model)
	}
	return shell
}

func TestShellStartScreens(t *testing.T) {
	t.Run("home", func(t *testing.T) {
		shell := startShell(testConfig(&fakeDevice{}))
		assert.Equal(t, ScreenHome, shell.screen)
	})

	t.Run("camera", func(t *testing.T) {
		cfg := testConfig(&fakeDevice{})
		cfg.StartScreen = ScreenCamera

		shell := startShell(cfg)
		assert.Equal(t, ScreenCamera, shell.screen)
		shell.camera.teardown()
	})

	t.Run("cashflow", func(t *testing.T) {
		cfg := testConfig(&fakeDevice{})
		cfg.StartScreen = ScreenCashFlow

		shell := startShell(cfg)
		assert.Equal(t, ScreenCashFlow, shell.screen)
		require.NotNil(t, shell.cashflow.store)
		assert.True(t, shell.cashflow.loading)

		// Load completion reaches the mounted screen, not Home.
		updated, _ := shell.Update(cashflowLoadedMsg{})
		shell = updated.(Model)
		assert.False(t, shell.cashflow.loading)
		assert.Empty(t, shell.cashflow.failErr)
	})
}

func TestShellTypingQInFormDoesNotQuit(t *testing.T) {
	cfg := testConfig(&fakeDevice{})
	shell := newModel(cfg)

	updated, _ := shell.Update(cashflowEnterMsg{})
	shell = updated.(Model)
	shell.cashflow.mode = modeAdd
	shell.cashflow.amountInput.Focus()

	updated, _ = shell.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	shell = updated.(Model)

	assert.False(t, shell.quitting)
	assert.Equal(t, ScreenCashFlow, shell.screen)
	assert.Equal(t, "q", shell.cashflow.amountInput.Value())

	// Outside a form, q still quits.
	viewShell := newModel(cfg)
	updated, _ = viewShell.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	assert.True(t, updated.(Model).quitting)

	// ctrl+c quits even while the form is focused.
	updated, _ = shell.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	assert.True(t, updated.(Model).quitting)
}

func TestShellAdvancesOnCameraReady(t *testing.T) {
	device := &fakeDevice{}
	cfg := testConfig(device)
	shell := newModel(cfg)

	session := acquireSession(t, cfg)
	updated, _ := shell.Update(cameraReadyMsg{session: session})
	shell = updated.(Model)

	assert.Equal(t, ScreenCamera, shell.screen)
	shell.camera.teardown()
}

func TestShellStaysHomeOnCameraError(t *testing.T) {
	shell := newModel(testConfig(&fakeDevice{}))
	shell.home.acquiring = true

	updated, _ := shell.Update(cameraErrorMsg{err: common.ErrPermissionDenied})
	shell = updated.(Model)

	assert.Equal(t, ScreenHome, shell.screen)
	assert.False(t, shell.home.acquiring)
	assert.Contains(t, shell.home.status, "No se pudo acceder a la cámara")
}

func TestShellLeavingCameraStopsIt(t *testing.T) {
	device := &fakeDevice{}
	cfg := testConfig(device)
	shell := newModel(cfg)

	updated, _ := shell.Update(cameraReadyMsg{session: acquireSession(t, cfg)})
	shell = updated.(Model)
	require.Equal(t, ScreenCamera, shell.screen)

	updated, _ = shell.Update(tea.KeyMsg{Type: tea.KeyEsc})
	shell = updated.(Model)

	assert.Equal(t, ScreenHome, shell.screen)
	assert.Equal(t, 1, device.closed())
}

func TestShellQuitReleasesCamera(t *testing.T) {
	device := &fakeDevice{}
	cfg := testConfig(device)
	shell := newModel(cfg)

	updated, _ := shell.Update(cameraReadyMsg{session: acquireSession(t, cfg)})
	shell = updated.(Model)

	updated, cmd := shell.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	shell = updated.(Model)

	assert.True(t, shell.quitting)
	assert.NotNil(t, cmd)
	assert.GreaterOrEqual(t, device.closed(), 1)
}

func TestShellMountsCashflow(t *testing.T) {
	shell := newModel(testConfig(&fakeDevice{}))

	updated, cmd := shell.Update(cashflowEnterMsg{})
	shell = updated.(Model)

	assert.Equal(t, ScreenCashFlow, shell.screen)
	assert.NotNil(t, cmd)
}

func TestCameraApplyResult(t *testing.T) {
	newCamera := func(announcer *recordingAnnouncer) cameraModel {
		return cameraModel{announcer: announcer}
	}

	t.Run("detection replaces error and announces once per label", func(t *testing.T) {
		announcer := &recordingAnnouncer{}
		camera := newCamera(announcer)
		camera.errMsg = "anterior"

		detection := model.Detection{Label: "1000_pesos", Confidence: 0.93, Detected: true}
		camera = camera.applyResult(scanner.Result{Detection: detection})

		require.NotNil(t, camera.detection)
		assert.Equal(t, "1000_pesos", camera.detection.Label)
		assert.Empty(t, camera.errMsg)
		assert.Equal(t, []string{"Billete detectado: 1000 pesos con 93 por ciento de confianza"}, announcer.announced())

		// The same bill held in front of the camera is not re-announced.
		camera = camera.applyResult(scanner.Result{Detection: detection})
		assert.Len(t, announcer.announced(), 1)

		// A different bill is.
		other := model.Detection{Label: "500_pesos", Confidence: 0.9, Detected: true}
		camera = camera.applyResult(scanner.Result{Detection: other})
		assert.Len(t, announcer.announced(), 2)
	})

	t.Run("error replaces detection", func(t *testing.T) {
		announcer := &recordingAnnouncer{}
		camera := newCamera(announcer)
		detection := model.Detection{Label: "1000_pesos", Confidence: 0.93, Detected: true}
		camera.detection = &detection

		camera = camera.applyResult(scanner.Result{Err: common.ErrConnection})

		assert.Nil(t, camera.detection)
		assert.NotEmpty(t, camera.errMsg)
		require.Len(t, announcer.announced(), 1)
		assert.Contains(t, announcer.announced()[0], "Error:")

		// A repeat of the same error is not re-announced.
		camera = camera.applyResult(scanner.Result{Err: common.ErrConnection})
		assert.Len(t, announcer.announced(), 1)
	})

	t.Run("non-detection clears both", func(t *testing.T) {
		camera := newCamera(&recordingAnnouncer{})
		detection := model.Detection{Label: "1000_pesos", Detected: true}
		camera.detection = &detection
		camera.errMsg = "anterior"

		camera = camera.applyResult(scanner.Result{})

		assert.Nil(t, camera.detection)
		assert.Empty(t, camera.errMsg)
	})
}

func TestCameraAddToCashBox(t *testing.T) {
	api := &fakeCashflowAPI{}
	camera := cameraModel{cashflow: api}

	cmd := camera.addToCashBox(model.Detection{Label: "500_pesos", Detected: true})
	msg := cmd()

	added, ok := msg.(scanAddedMsg)
	require.True(t, ok)
	require.NoError(t, added.err)
	assert.Equal(t, "500 pesos", added.label)

	require.Len(t, api.scanValues, 1)
	assert.True(t, api.scanValues[0].Equal(decimal.NewFromInt(500)))
}

func TestDenominationValue(t *testing.T) {
	value, err := denominationValue("500_pesos")
	require.NoError(t, err)
	assert.True(t, value.Equal(decimal.NewFromInt(500)))

	value, err = denominationValue("1000")
	require.NoError(t, err)
	assert.True(t, value.Equal(decimal.NewFromInt(1000)))

	_, err = denominationValue("fondo")
	require.Error(t, err)
	assert.Equal(t, "el billete detectado no tiene un valor conocido", common.UserMessage(err))
}

func TestCameraTeardownIdempotent(t *testing.T) {
	device := &fakeDevice{}
	cfg := testConfig(device)
	camera, _ := mountCamera(cfg, acquireSession(t, cfg))

	camera.teardown()
	camera.teardown()

	assert.Equal(t, 1, device.closed())

	// A zero model tears down without panicking.
	var zero cameraModel
	zero.teardown()
}

func TestCashflowFormValidation(t *testing.T) {
	cfg := testConfig(&fakeDevice{})
	keymap := DefaultKeyMap()

	newForm := func(t *testing.T) cashflowModel {
		t.Helper()
		c, _ := mountCashflow(cfg)
		c.loading = false
		c.mode = modeAdd
		return c
	}

	t.Run("unparseable amount stays inline", func(t *testing.T) {
		c := newForm(t)
		c.amountInput.SetValue("doce")

		c, cmd := c.submit()
		assert.Nil(t, cmd)
		assert.Equal(t, modeAdd, c.mode)
		assert.Equal(t, "Monto inválido", c.formErr)
	})

	t.Run("non-positive amount stays inline", func(t *testing.T) {
		c := newForm(t)
		c.amountInput.SetValue("-10")

		c, cmd := c.submit()
		assert.Nil(t, cmd)
		assert.Equal(t, "El monto debe ser positivo", c.formErr)
	})

	t.Run("valid amount issues the mutation", func(t *testing.T) {
		c := newForm(t)
		c.amountInput.SetValue("120.50")

		c, cmd := c.submit()
		assert.True(t, c.saving)
		assert.Empty(t, c.formErr)
		assert.NotNil(t, cmd)
	})

	t.Run("esc cancels the form", func(t *testing.T) {
		c := newForm(t)
		c.formErr = "Monto inválido"

		c, _ = c.updateForm(tea.KeyMsg{Type: tea.KeyEsc}, keymap)
		assert.Equal(t, modeView, c.mode)
		assert.Empty(t, c.formErr)
	})

	t.Run("tab toggles the movement type while adding", func(t *testing.T) {
		c := newForm(t)
		require.Equal(t, model.MovementIncome, c.movementType)

		c, _ = c.updateForm(tea.KeyMsg{Type: tea.KeyTab}, keymap)
		assert.Equal(t, model.MovementExpense, c.movementType)

		c, _ = c.updateForm(tea.KeyMsg{Type: tea.KeyTab}, keymap)
		assert.Equal(t, model.MovementIncome, c.movementType)
	})
}

func TestCashflowLoadFailure(t *testing.T) {
	cfg := testConfig(&fakeDevice{})
	c, _ := mountCashflow(cfg)

	c, _ = c.update(cashflowLoadedMsg{err: common.ErrConnection}, DefaultKeyMap())
	assert.False(t, c.loading)
	assert.NotEmpty(t, c.failErr)

	// Retry clears the error and re-enters loading.
	c, cmd := c.update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}}, DefaultKeyMap())
	assert.True(t, c.loading)
	assert.Empty(t, c.failErr)
	assert.NotNil(t, cmd)
}

func TestCashflowSaveErrors(t *testing.T) {
	cfg := testConfig(&fakeDevice{})
	keymap := DefaultKeyMap()

	t.Run("validation failure stays in the form", func(t *testing.T) {
		c, _ := mountCashflow(cfg)
		c.mode = modeAdd
		c.saving = true

		c, _ = c.update(movementSavedMsg{err: common.NewUserError("El monto debe ser positivo", common.ErrValidation)}, keymap)
		assert.Equal(t, modeAdd, c.mode)
		assert.Equal(t, "El monto debe ser positivo", c.formErr)
		assert.False(t, c.saving)
	})

	t.Run("transport failure fails the screen", func(t *testing.T) {
		c, _ := mountCashflow(cfg)
		c.mode = modeAdd
		c.saving = true

		c, _ = c.update(movementSavedMsg{err: common.ErrConnection}, keymap)
		assert.Equal(t, modeView, c.mode)
		assert.NotEmpty(t, c.failErr)
	})
}
