// ssdflashid identifies the NAND flash packages behind NVMe and SATA SSD
// controllers by sending vendor diagnostic commands to the controller.
// Cobra CLI, optional tcell full-screen scan view.
//
// Build:
//
//	go build -o ssdflashid .
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"ssdflashid/ata"
	"ssdflashid/controller"
	"ssdflashid/flash"
	"ssdflashid/nvme"
	"ssdflashid/scanview"
)

const progName = "ssdflashid"

// How long the scan view stays up after the scan unless the user quits.
const viewLinger = 30 * time.Second

func must(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

/* ===================== Options ===================== */

type options struct {
	controller string
	rtlVariant string
	raw        bool
	format     string
	tui        bool
	verbose    bool
	logFormat  string
}

// runConfig is options after validation.
type runConfig struct {
	forced  controller.Family
	variant controller.RealtekVariant // zero when not given
	raw     bool
	format  string
	tui     bool
}

func (o *options) resolve() (runConfig, error) {
	cfg := runConfig{raw: o.raw, format: o.format, tui: o.tui}
	switch o.format {
	case "text", "yaml":
	default:
		return cfg, fmt.Errorf("unknown output format %q (expected text or yaml)", o.format)
	}
	if o.controller != "" {
		f, err := controller.ParseFamily(o.controller)
		if err != nil {
			return cfg, err
		}
		cfg.forced = f
	}
	if o.rtlVariant != "" {
		v, err := controller.ParseRealtekVariant(o.rtlVariant)
		if err != nil {
			return cfg, err
		}
		cfg.variant = v
	}
	return cfg, nil
}

func setupLogging(verbose bool, format string) error {
	log.SetOutput(os.Stderr)
	switch format {
	case "text":
		log.SetFormatter(&log.TextFormatter{DisableTimestamp: true})
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	default:
		return fmt.Errorf("unknown log format %q (expected text or json)", format)
	}
	if verbose {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.WarnLevel)
	}
	return nil
}

/* ===================== Scan ===================== */

// scanNVMeDevice detects (or takes the forced) controller type and reads the
// flash ids through its extractor.
func scanNVMeDevice(dev controller.NVMe, info *nvme.ControllerInfo, cfg runConfig, obs flash.Observer) (*Report, error) {
	var (
		t   controller.Type
		err error
	)
	if cfg.forced != controller.Unknown {
		if t, err = controller.Forced(cfg.forced); err != nil {
			return nil, err
		}
	} else if t, err = controller.Detect(dev, info); err != nil {
		return nil, fmt.Errorf("could not auto-detect controller type: %w (try --controller <type>, valid: %s)",
			err, controller.FamilyNames(controller.NVMeFamilies()))
	}
	if cfg.variant != 0 {
		if t.Family == controller.Realtek {
			t = t.WithVariant(cfg.variant)
		} else {
			log.Warnf("--rtl-variant ignored for %s", t)
		}
	}
	log.WithField("type", t.String()).Info("controller type")

	res, _, err := flash.FirstSuccess([]flash.Attempt{{
		Name: t.Family.String(),
		Run:  func() (*flash.Result, error) { return controller.ReadNVMe(dev, t) },
	}}, obs)
	if err != nil {
		return nil, fmt.Errorf("%s flash id read failed: %w (the %s vendor command was rejected; the controller may be a different type, valid: %s)",
			t.Name, err, t.Family.DisplayName(), controller.FamilyNames(controller.NVMeFamilies()))
	}
	rep := &Report{
		Bus:      controller.BusNVMe.String(),
		Model:    info.Model,
		Serial:   info.Serial,
		Firmware: info.Firmware,
		Family:   t.Family.DisplayName(),
	}
	rep.setResult(res, cfg.raw)
	return rep, nil
}

// scanSATADevice runs the forced family, the family named by the firmware
// revision, or the whole auto-detect chain.
func scanSATADevice(dev controller.ATA, id *ata.Identity, cfg runConfig, obs flash.Observer) (*Report, error) {
	res, family, err := controller.ReadSATA(dev, id, cfg.forced, obs)
	if err != nil {
		return nil, fmt.Errorf("%w (model %q firmware %q: this SATA device may not have a supported controller, sata types: %s)",
			err, id.Model, id.Firmware, controller.FamilyNames(controller.SATAFamilies()))
	}
	rep := &Report{
		Bus:      controller.BusSATA.String(),
		Model:    id.Model,
		Serial:   id.Serial,
		Firmware: id.Firmware,
		Family:   family,
	}
	rep.setResult(res, cfg.raw)
	return rep, nil
}

func observer(v *scanview.View) flash.Observer {
	if v == nil {
		return nil
	}
	return v
}

func summary(path string, bus controller.Bus, model, firmware string) []string {
	return []string{
		"Device     : " + path + " (" + bus.String() + ")",
		"Model      : " + model,
		"Firmware   : " + firmware,
	}
}

func scanNVMe(path string, cfg runConfig, view *scanview.View) (*Report, error) {
	dev, err := nvme.Open(path)
	if err != nil {
		return nil, err
	}
	defer dev.Close()

	info, err := dev.IdentifyController()
	if err != nil {
		return nil, fmt.Errorf("failed to identify controller: %w", err)
	}
	if view != nil {
		view.SetSummary(summary(path, controller.BusNVMe, info.Model, info.Firmware))
		view.Draw()
	}
	return scanNVMeDevice(dev, info, cfg, observer(view))
}

func scanSATA(path string, cfg runConfig, view *scanview.View) (*Report, error) {
	// Reject NVMe families before touching the device.
	if cfg.forced != controller.Unknown && cfg.forced.Bus() != controller.BusSATA {
		return nil, fmt.Errorf("controller type %q is not supported for sata devices (sata types: %s)",
			cfg.forced, controller.FamilyNames(controller.SATAFamilies()))
	}
	dev, err := ata.Open(path)
	if err != nil {
		return nil, err
	}
	defer dev.Close()

	id, err := dev.Identify()
	if err != nil {
		return nil, fmt.Errorf("failed to identify device: %w", err)
	}
	if view != nil {
		view.SetSummary(summary(path, controller.BusSATA, id.Model, id.Firmware))
		if plan, err := controller.SATAPlan(dev, id, cfg.forced); err == nil {
			names := make([]string, len(plan))
			for i, a := range plan {
				names[i] = a.Name
			}
			view.SetPhases(names)
		}
		view.Draw()
	}
	return scanSATADevice(dev, id, cfg, observer(view))
}

func run(w io.Writer, path string, cfg runConfig) error {
	bus, err := busOf(path)
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{"device": path, "bus": bus.String()}).Debug("scanning")

	var view *scanview.View
	if cfg.tui {
		if view, err = scanview.New(); err != nil {
			return fmt.Errorf("starting scan view: %w", err)
		}
		view.SetTitle(" " + progName + " ")
		view.SetRaw(cfg.raw)
	}

	var rep *Report
	if bus == controller.BusSATA {
		rep, err = scanSATA(path, cfg, view)
	} else {
		rep, err = scanNVMe(path, cfg, view)
	}

	if view != nil {
		var res *flash.Result
		if rep != nil {
			res = rep.result
		}
		if werr := view.Conclude(res, err, viewLinger); errors.Is(werr, scanview.ErrInterrupted) {
			log.Debug("scan view closed by user")
		}
		view.Close()
	}
	if err != nil {
		return err
	}
	rep.Device = path
	return rep.Write(w, cfg.format, cfg.raw)
}

/* ===================== Device list ===================== */

func identifyLine(c candidate) string {
	switch c.Bus {
	case controller.BusNVMe:
		dev, err := nvme.Open(c.Path)
		if err != nil {
			return fmt.Sprintf("%s  (open failed: %v)", c.Path, err)
		}
		defer dev.Close()
		info, err := dev.IdentifyController()
		if err != nil {
			return fmt.Sprintf("%s  (identify failed: %v)", c.Path, err)
		}
		return fmt.Sprintf("%s  %s  sn:%s  fw:%s", c.Path, info.Model, info.Serial, info.Firmware)
	default:
		dev, err := ata.Open(c.Path)
		if err != nil {
			return fmt.Sprintf("%s  (open failed: %v)", c.Path, err)
		}
		defer dev.Close()
		id, err := dev.Identify()
		if err != nil {
			return fmt.Sprintf("%s  (identify failed: %v)", c.Path, err)
		}
		return fmt.Sprintf("%s  %s  sn:%s  fw:%s", c.Path, id.Model, id.Serial, id.Firmware)
	}
}

func listDevices(w io.Writer) error {
	cands, err := discoverDevices()
	if err != nil {
		return err
	}
	if len(cands) == 0 {
		fmt.Fprintln(w, "no devices found")
		return nil
	}
	for _, c := range cands {
		fmt.Fprintln(w, identifyLine(c))
	}
	return nil
}

// defaultDevice picks the only NVMe controller. SATA disks are never picked
// implicitly.
func defaultDevice() (string, error) {
	cands, err := discoverDevices()
	if err != nil {
		return "", err
	}
	var paths []string
	for _, c := range cands {
		if c.Bus == controller.BusNVMe {
			paths = append(paths, c.Path)
		}
	}
	switch len(paths) {
	case 0:
		return "", fmt.Errorf("no NVMe devices found (for SATA devices, specify the path: %s /dev/sdX)", progName)
	case 1:
		return paths[0], nil
	}
	return "", fmt.Errorf("multiple NVMe devices found: %s (specify one, e.g. %s %s)",
		strings.Join(paths, ", "), progName, paths[0])
}

/* ===================== Main ===================== */

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   progName + " [device]",
		Short: "Identify NAND flash chips on NVMe and SATA SSDs",
		Long: "Identify NAND flash chips on NVMe and SATA SSDs.\n\n" +
			"The device is an NVMe controller (/dev/nvme0) or a SATA disk (/dev/sda).\n" +
			"Without a device the single NVMe controller present is used.\n\n" +
			"Controller types:\n" +
			"  nvme: " + controller.FamilyNames(controller.NVMeFamilies()) + "\n" +
			"  sata: " + controller.FamilyNames(controller.SATAFamilies()),
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if err := setupLogging(opts.verbose, opts.logFormat); err != nil {
				return err
			}
			return checkRoot()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.resolve()
			if err != nil {
				return err
			}
			var path string
			if len(args) == 1 {
				path = args[0]
			} else if path, err = defaultDevice(); err != nil {
				return err
			}
			return run(cmd.OutOrStdout(), filepath.Clean(path), cfg)
		},
	}
	root.Flags().StringVarP(&opts.controller, "controller", "c", "", "force controller type (see list above)")
	root.Flags().StringVar(&opts.rtlVariant, "rtl-variant", "", "force Realtek variant: v1 (RTS5762/63), v2 (RTS5765/66/72)")
	root.Flags().BoolVar(&opts.raw, "raw", false, "print raw flash id bytes only")
	root.Flags().StringVar(&opts.format, "format", "text", "report format: text|yaml")
	root.Flags().BoolVar(&opts.tui, "tui", false, "show the scan on a full-screen view")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log every command sent to the device")
	root.PersistentFlags().StringVar(&opts.logFormat, "log-format", "text", "log format: text|json")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List NVMe controllers and SATA disks (read-only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return listDevices(cmd.OutOrStdout())
		},
	}
	root.AddCommand(listCmd)
	return root
}

func main() {
	must(newRootCmd().Execute())
}
