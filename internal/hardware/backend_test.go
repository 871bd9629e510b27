package hardware_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/punchcard/internal/config"
	"github.com/san-kum/punchcard/internal/grid"
	"github.com/san-kum/punchcard/internal/hardware"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeLines struct {
	mu     sync.Mutex
	writes [][]int
	fail   bool
	closed bool
}

func (f *fakeLines) SetValues(v []int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("bus error")
	}
	f.writes = append(f.writes, append([]int(nil), v...))
	return nil
}

func (f *fakeLines) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeLines) setFail(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = v
}

// clocked returns the data bits sampled on each rising clock edge.
func (f *fakeLines) clocked() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	var bits []int
	for _, w := range f.writes {
		if w[1] == 1 {
			bits = append(bits, w[0])
		}
	}
	return bits
}

type sinkRecorder struct {
	mu    sync.Mutex
	snaps []grid.Matrix
}

func (s *sinkRecorder) PushSnapshot(m grid.Matrix) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snaps = append(s.snaps, m)
}

func (s *sinkRecorder) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.snaps)
}

func backendConfig(kind string) config.BackendConfig {
	cfg := config.DefaultConfig().Backend
	cfg.Type = kind
	cfg.Hz = 100
	return cfg
}

var _ = Describe("Factory", func() {
	var store *grid.Store

	BeforeEach(func() {
		store = grid.NewStore(grid.DefaultRows, grid.DefaultCols, quiet)
	})

	DescribeTable("selects by type",
		func(kind, want string) {
			b := hardware.New(hardware.Options{Config: backendConfig(kind), Source: store, Logger: quiet})
			Expect(b.Name()).To(Equal(want))
		},
		Entry("null", "null", "null"),
		Entry("simulated", "simulated", "simulated"),
		Entry("gpio", "gpio", "gpio"),
		Entry("case and spaces", " GPIO ", "gpio"),
		Entry("empty", "", "simulated"),
		Entry("unknown", "plasma", "simulated"),
	)

	It("lists registered names", func() {
		Expect(hardware.Names()).To(Equal([]string{"gpio", "null", "simulated"}))
	})

	It("falls back to simulated for a missing file", func() {
		b := hardware.NewFromFile(filepath.Join(GinkgoT().TempDir(), "nope.yaml"),
			hardware.Options{Source: store, Logger: quiet})
		Expect(b.Name()).To(Equal("simulated"))
	})

	It("falls back to simulated for a malformed file", func() {
		path := filepath.Join(GinkgoT().TempDir(), "bad.yaml")
		Expect(os.WriteFile(path, []byte("type: [gpio"), 0644)).To(Succeed())
		b := hardware.NewFromFile(path, hardware.Options{Source: store, Logger: quiet})
		Expect(b.Name()).To(Equal("simulated"))
	})

	DescribeTable("reads the type from a file",
		func(body, want string) {
			path := filepath.Join(GinkgoT().TempDir(), "board.yaml")
			Expect(os.WriteFile(path, []byte(body), 0644)).To(Succeed())
			b := hardware.NewFromFile(path, hardware.Options{Source: store, Logger: quiet})
			Expect(b.Name()).To(Equal(want))
		},
		Entry("bare null", "type: null\nhz: 10\n", "null"),
		Entry("quoted null", "type: \"null\"\n", "null"),
		Entry("tilde", "type: ~\n", "null"),
		Entry("gpio", "type: gpio\ngpio:\n  chip: gpiochip9\n", "gpio"),
	)
})

var _ = Describe("Simulated", func() {
	var (
		store *grid.Store
		sink  *sinkRecorder
		sim   *hardware.Simulated
	)

	BeforeEach(func() {
		store = grid.NewStore(grid.DefaultRows, grid.DefaultCols, quiet)
		sink = &sinkRecorder{}
		sim = hardware.NewSimulated(hardware.Options{Config: backendConfig("simulated"), Source: store, Logger: quiet, Sink: sink})
	})

	AfterEach(func() {
		Expect(sim.Disconnect()).To(Succeed())
	})

	It("refuses to start before connecting", func() {
		Expect(sim.Start()).To(MatchError(hardware.ErrNotConnected))
	})

	It("pushes each distinct snapshot once", func() {
		Expect(sim.Connect(context.Background())).To(Succeed())
		store.Subscribe(sim)

		store.SetCell(0, 0, true)
		Expect(sim.OnGridEvent(grid.Event{Row: 0, Col: 0, State: true})).To(Succeed())

		Expect(sink.count()).To(Equal(1))
		Expect(sim.Frames()).To(Equal(uint64(1)))
	})

	It("keeps refreshing from its own loop", func() {
		Expect(sim.Connect(context.Background())).To(Succeed())
		Expect(sim.Start()).To(Succeed())
		Expect(sim.Start()).To(Succeed())

		store.SetAll(true)

		Eventually(sink.count).Should(BeNumerically(">=", 1))
		Expect(sim.Stop()).To(Succeed())
		Expect(sim.Stop()).To(Succeed())
	})

	It("does not recurse when its sink writes back into the store", func() {
		calls := 0
		writer := hardware.NewSimulated(hardware.Options{
			Config: backendConfig("simulated"),
			Source: store,
			Logger: quiet,
			Sink: sinkFunc(func(m grid.Matrix) {
				calls++
				store.SetCell(1, calls, true)
			}),
		})
		Expect(writer.Connect(context.Background())).To(Succeed())
		store.Subscribe(writer)

		store.SetCell(0, 0, true)

		Expect(calls).To(Equal(1))
		Expect(writer.Disconnect()).To(Succeed())
	})
})

type sinkFunc func(grid.Matrix)

func (f sinkFunc) PushSnapshot(m grid.Matrix) { f(m) }

var _ = Describe("GPIO", func() {
	var (
		store *grid.Store
		lines *fakeLines
		gpio  *hardware.GPIO
	)

	newGPIO := func(cfg config.BackendConfig, open hardware.Opener) *hardware.GPIO {
		return hardware.NewGPIO(hardware.Options{Config: cfg, Source: store, Logger: quiet, Opener: open})
	}

	BeforeEach(func() {
		store = grid.NewStore(2, 3, quiet)
		lines = &fakeLines{}
		gpio = newGPIO(backendConfig("gpio"), func(string, []int) (hardware.Lines, error) { return lines, nil })
	})

	It("reports a missing chip as unavailable", func() {
		missing := newGPIO(backendConfig("gpio"), func(string, []int) (hardware.Lines, error) {
			return nil, os.ErrNotExist
		})
		err := missing.Connect(context.Background())
		Expect(err).To(MatchError(hardware.ErrDeviceUnavailable))
		Expect(missing.Available()).To(BeFalse())
		Expect(missing.Start()).To(MatchError(hardware.ErrNotConnected))
	})

	It("shifts out the frame on a cell event", func() {
		Expect(gpio.Connect(context.Background())).To(Succeed())
		store.Subscribe(gpio)

		store.SetCell(0, 0, true)

		Expect(gpio.Frame()).To(Equal([]bool{true, false, false, false, false, false}))
		Expect(gpio.Writes()).To(Equal(uint64(1)))
		// last chain position is clocked first
		Expect(lines.clocked()).To(Equal([]int{0, 0, 0, 0, 0, 1}))
	})

	It("uses the column fast path", func() {
		Expect(gpio.Connect(context.Background())).To(Succeed())
		store.Subscribe(gpio)

		store.SetColumn(2, []bool{true, true})

		Expect(gpio.Frame()).To(Equal([]bool{false, false, true, false, false, true}))
	})

	It("inverts polarity", func() {
		cfg := backendConfig("gpio")
		cfg.Invert = true
		inv := newGPIO(cfg, func(string, []int) (hardware.Lines, error) { return lines, nil })
		Expect(inv.Connect(context.Background())).To(Succeed())
		store.Subscribe(inv)

		store.SetCell(1, 2, true)

		Expect(lines.clocked()).To(Equal([]int{0, 1, 1, 1, 1, 1}))
	})

	It("maps serpentine rows", func() {
		cfg := backendConfig("gpio")
		cfg.GPIO.Layout = "serpentine"
		snake := newGPIO(cfg, func(string, []int) (hardware.Lines, error) { return lines, nil })
		Expect(snake.Connect(context.Background())).To(Succeed())
		store.Subscribe(snake)

		store.SetCell(1, 2, true)

		Expect(snake.Frame()).To(Equal([]bool{false, false, false, true, false, false}))
	})

	It("skips identical frames from the loop", func() {
		Expect(gpio.Connect(context.Background())).To(Succeed())
		store.Subscribe(gpio)
		store.SetCell(0, 1, true)
		Expect(gpio.Start()).To(Succeed())

		Consistently(gpio.Writes, 100*time.Millisecond).Should(Equal(uint64(1)))
		Expect(gpio.Stop()).To(Succeed())
	})

	It("marks itself unavailable after repeated write failures", func() {
		Expect(gpio.Connect(context.Background())).To(Succeed())
		store.Subscribe(gpio)
		lines.setFail(true)

		store.SetCell(0, 0, true)
		store.SetCell(0, 1, true)
		store.SetCell(0, 2, true)

		Expect(gpio.Available()).To(BeFalse())
		store.SetCell(1, 0, true)
		Expect(gpio.Writes()).To(BeZero())
	})

	It("releases the lines on disconnect", func() {
		Expect(gpio.Connect(context.Background())).To(Succeed())
		Expect(gpio.Start()).To(Succeed())
		Expect(gpio.Disconnect()).To(Succeed())
		Expect(gpio.Disconnect()).To(Succeed())
		Expect(lines.closed).To(BeTrue())
	})

	It("clamps brightness", func() {
		gpio.SetBrightness(3)
		Expect(gpio.Brightness()).To(Equal(1.0))
		gpio.SetBrightness(-1)
		Expect(gpio.Brightness()).To(Equal(0.0))
	})
})

var _ = Describe("Group", func() {
	It("keeps running the backends that connect", func() {
		store := grid.NewStore(grid.DefaultRows, grid.DefaultCols, quiet)
		sink := &sinkRecorder{}
		broken := hardware.NewGPIO(hardware.Options{
			Config: backendConfig("gpio"),
			Source: store,
			Logger: quiet,
			Opener: func(string, []int) (hardware.Lines, error) { return nil, os.ErrNotExist },
		})
		sim := hardware.NewSimulated(hardware.Options{Config: backendConfig("simulated"), Source: store, Logger: quiet, Sink: sink})
		null := hardware.NewNull()

		group := hardware.NewGroup(store, quiet, broken, sim, null)
		n, err := group.Connect(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(2))

		store.SetCell(3, 3, true)
		Expect(null.Events()).To(Equal(uint64(1)))
		Eventually(sink.count).Should(BeNumerically(">=", 1))

		Expect(group.Close()).To(Succeed())
		Expect(group.Close()).To(Succeed())
		Expect(store.Observers()).To(BeZero())
	})

	It("maps layouts", func() {
		Expect(hardware.RowMajor.Index(1, 2, 2, 3)).To(Equal(5))
		Expect(hardware.ColumnMajor.Index(1, 2, 2, 3)).To(Equal(5))
		Expect(hardware.ColumnMajor.Index(0, 1, 2, 3)).To(Equal(2))
		Expect(hardware.Serpentine.Index(1, 0, 2, 3)).To(Equal(5))
		Expect(hardware.RowMajor.Index(2, 0, 2, 3)).To(Equal(-1))
		Expect(hardware.ParseLayout("bogus")).To(Equal(hardware.RowMajor))
	})
})
