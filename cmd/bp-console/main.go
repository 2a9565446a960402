// Copyright 2023 The SCTSC Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command bp-console is the interactive diagnostic console for the
// camera backplane, driving the housekeeping and trigger FPGAs over
// SPI.
package main // import "github.com/jmsantander/SCTSC/cmd/bp-console"

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/peterh/liner"

	"github.com/jmsantander/SCTSC/bp"
	"github.com/jmsantander/SCTSC/bpio"
	"github.com/jmsantander/SCTSC/maskdb"
	"github.com/jmsantander/SCTSC/spibus"
)

func main() {
	var (
		device = flag.String("dev", "/dev/spidev0.0", "SPI device to use")
		speed  = flag.Uint("speed", spibus.DefaultSpeed, "SPI clock in Hz")
		dbname = flag.String("db", "tcam", "trigger mask database name")
	)

	flag.Parse()

	log.SetPrefix("bp-console: ")
	log.SetFlags(0)

	bus, err := spibus.Open(*device, spibus.WithSpeed(uint32(*speed)))
	if err != nil {
		log.Fatalf("could not open SPI bus: %+v", err)
	}
	defer bus.Close()

	err = run(bus, *dbname)
	if err != nil {
		log.Fatalf("%+v", err)
	}
}

func run(bus bp.Wordbus, dbname string) error {
	term := liner.NewLiner()
	defer term.Close()
	term.SetCtrlCAborts(true)

	con := &console{
		term:   term,
		dev:    bp.NewDevice(bus),
		dbname: dbname,
	}

	fmt.Printf("\n************* SCT Camera Backplane Console *************\n")
	con.menu()

	for {
		line, err := term.Prompt("bp> ")
		if err != nil {
			if err == liner.ErrPromptAborted || err == io.EOF {
				return nil
			}
			return fmt.Errorf("could not read command: %w", err)
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		term.AppendHistory(line)
		if line == "x" {
			fmt.Printf("\n exiting program \n\n")
			return nil
		}
		con.dispatch(line)
	}
}

type console struct {
	term   *liner.State
	dev    *bp.Device
	dbname string
}

func (con *console) menu() {
	fmt.Print(`----------------------- Command Menu ---------------------------------
w. HKFPGA wrap around                 p. Display FEEs Present
v. Display FEE 12V                    i. Display FEE I
h. Power Board HSKP                   e. ENV HSKP
r. Reset FEE                          n. Power on/off FEE
t. Send Cal Trigger                   u. Power Board Status
1. Reset DACQ1 Power                  2. Reset DACQ2 Power

a. TFPGA wrap around                  k. TFPGA Trigger
b. TFPGA set nsTimer                  c. TFPGA Read nsTimer, Counts, Rates
f. TFPGA Trigger Time Read            g. TFPGA En/Disable Trigger/TACK
j. Set Trigger Mask from file         l. Reset Trigger Counter and nsTimer
5. Set Trigger Mask for single group  8. Set Trigger Mask from pattern
M. Load Trigger Mask from database
q. Read Hit Pattern                   y. Set Array Board Config
z. Set Tack Type and Mode             d. Set Trigger at Time
s. Send a SYNC Message                o. Set Hold Off
3. Read DIAT Words                    4. Reset Si5338 clock distributor
6. Reset I2C bus                      9. Write trigger patterns to ASCII file
$. Write trigger patterns to binary file
----------------------- Misc Commands --------------------------------
m. Menu                               x. exit
`)
}

// commands maps the single-letter operator keys to their handlers.
var commands = map[string]func(*console) error{
	"m": func(con *console) error { con.menu(); return nil },
	"w": func(con *console) error { return con.wrap(bp.Housekeeping) },
	"a": func(con *console) error { return con.wrap(bp.Trigger) },
	"p": (*console).feesPresent,
	"v": (*console).voltages,
	"i": (*console).currents,
	"h": (*console).powerBoard,
	"e": (*console).env,
	"r": (*console).resetFEE,
	"n": (*console).powerCtl,
	"t": (*console).calTrigger,
	"u": (*console).powerStatus,
	"1": func(con *console) error { return con.show(con.dev.ResetDACQ1()) },
	"2": func(con *console) error { return con.show(con.dev.ResetDACQ2()) },
	"b": (*console).setNsTimer,
	"c": (*console).readNsTimer,
	"f": (*console).triggerTime,
	"g": (*console).triggerEnable,
	"j": (*console).maskFromFile,
	"5": (*console).maskSingleGroup,
	"8": (*console).maskFromPattern,
	"M": (*console).maskFromDB,
	"k": func(con *console) error { return con.show(con.dev.SoftTrigger()) },
	"l": func(con *console) error { return con.dev.ResetCounters() },
	"q": (*console).hitPattern,
	"y": (*console).serdesConfig,
	"z": (*console).tackTypeMode,
	"d": (*console).trigAtTime,
	"s": (*console).sendSync,
	"o": (*console).holdoff,
	"3": func(con *console) error { return con.show(con.dev.ReadDIAT()) },
	"4": func(con *console) error { return con.show(con.dev.ResetSi5338()) },
	"6": func(con *console) error { return con.show(con.dev.ResetI2C()) },
	"9": func(con *console) error { return con.capture(false) },
	"$": func(con *console) error { return con.capture(true) },
}

func (con *console) dispatch(line string) {
	cmd, ok := commands[line[:1]]
	if !ok {
		fmt.Printf("unknown command %q, press 'm' for the menu\n", line)
		return
	}
	if err := cmd(con); err != nil {
		log.Printf("error: %+v", err)
	}
}

// show displays a raw response frame.
func (con *console) show(f bp.Frame, err error) error {
	if err != nil {
		return err
	}
	fmt.Printf(" SOM  CMD DW 1 DW 2 DW 3 DW 4 DW 5 DW 6 DW 7 DW 8  EOM\n")
	fmt.Printf("%s\n", f)
	return nil
}

func (con *console) wrap(k bp.Kind) error {
	resp, err := con.dev.WrapAround(k)
	return con.show(resp, err)
}

func (con *console) feesPresent() error {
	fees, err := con.dev.FEEsPresent()
	if err != nil {
		return err
	}
	fmt.Print(fees.Grid())
	return nil
}

func (con *console) voltages() error {
	if err := con.dev.TriggerADCs(); err != nil {
		return err
	}
	volts, err := con.dev.ReadVoltages()
	if err != nil {
		return err
	}
	fmt.Printf("\nFEE Voltages Should be ~12V\n\n")
	fmt.Print(volts.Grid())
	return nil
}

func (con *console) currents() error {
	if err := con.dev.TriggerADCs(); err != nil {
		return err
	}
	amps, err := con.dev.ReadCurrents()
	if err != nil {
		return err
	}
	fmt.Printf("\nFEE 12 Volt Current (A)\n\n")
	fmt.Print(amps.Grid())
	return nil
}

func (con *console) powerBoard() error {
	if err := con.dev.TriggerADCs(); err != nil {
		return err
	}
	pb, err := con.dev.ReadPowerBoard()
	if err != nil {
		return err
	}
	fmt.Print(pb)
	return nil
}

func (con *console) env() error {
	if err := con.dev.TriggerADCs(); err != nil {
		return err
	}
	env, err := con.dev.ReadEnv()
	if err != nil {
		return err
	}
	fmt.Print(env)
	return nil
}

func (con *console) resetFEE() error {
	slot, err := con.promptInt("Enter which FEE to reset 0-31: ")
	if err != nil {
		return err
	}
	return con.dev.ResetFEE(slot)
}

func (con *console) powerCtl() error {
	bits, err := con.promptHex("Enter FEEs to Power ON/OFF (32 bits 0=off 1=on) 0-0xFFFFFFFF: ", 32)
	if err != nil {
		return err
	}
	return con.dev.PowerCtl(uint32(bits))
}

func (con *console) calTrigger() error {
	duration, err := con.promptInt("Specify run duration in seconds: ")
	if err != nil {
		return err
	}
	freq, err := con.promptInt("Specify trigger frequency in Hz: ")
	if err != nil {
		return err
	}
	fmt.Printf("Sent Trigger to Cal Units\n")
	return con.dev.CalTrigger(duration, freq)
}

func (con *console) powerStatus() error {
	return con.show(con.dev.PowerStatus())
}

func (con *console) setNsTimer() error {
	t, err := con.promptHex("Enter nsTimer value in hex: ", 64)
	if err != nil {
		return err
	}
	return con.dev.SetNsTimer(t)
}

func (con *console) readNsTimer() error {
	stats, err := con.dev.ReadNsTimer()
	if err != nil {
		return err
	}
	fmt.Print(stats)
	return nil
}

func (con *console) triggerTime() error {
	t, err := con.dev.TriggerTime()
	if err != nil {
		return err
	}
	fmt.Printf("Trigger time %d ns\n", t)
	return nil
}

func (con *console) triggerEnable() error {
	fmt.Printf("Enter En/Disable Triggers and TACKs in Hex:\n")
	fmt.Printf("Bit 0 is Phase A logic, 1 Phase B, 2 Phase C, 3 Phase D\n")
	fmt.Printf("Bit 4 is External Trigger\n")
	fmt.Printf("Bit 5 is TACK messages to TMs 0-15, 6 TMs 16-31\n")
	bits, err := con.promptHex("> ", 16)
	if err != nil {
		return err
	}
	return con.dev.TriggerEnable(uint16(bits))
}

func (con *console) maskFromFile() error {
	fname, err := con.term.Prompt("specify filename to read: ")
	if err != nil {
		return err
	}
	mask, err := bp.ReadMaskFile(strings.TrimSpace(fname))
	if err != nil {
		return err
	}
	fmt.Printf("Setting Trigger Mask from file %s\n", fname)
	return con.dev.SetTriggerMask(mask)
}

func (con *console) maskSingleGroup() error {
	module, err := con.promptInt("specify module for triggering: ")
	if err != nil {
		return err
	}
	asic, err := con.promptInt("specify asic for triggering: ")
	if err != nil {
		return err
	}
	group, err := con.promptInt("specify group for triggering: ")
	if err != nil {
		return err
	}
	mask, err := bp.SingleGroupMask(module, asic, group)
	if err != nil {
		return err
	}
	fmt.Printf("Setting Trigger Mask from input\n")
	return con.dev.SetTriggerMask(mask)
}

func (con *console) maskFromPattern() error {
	pattern, err := con.term.Prompt("Input module-trigger pattern (32 chars, 1=enable): ")
	if err != nil {
		return err
	}
	mask, err := bp.MaskFromPattern(strings.TrimSpace(pattern))
	if err != nil {
		return err
	}
	return con.dev.SetTriggerMask(mask)
}

func (con *console) maskFromDB() error {
	db, err := maskdb.Open(con.dbname)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()
	names, err := db.Names(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("stored masks: %s\n", strings.Join(names, ", "))

	name, err := con.term.Prompt("specify mask to load: ")
	if err != nil {
		return err
	}
	mask, err := db.LoadMask(ctx, strings.TrimSpace(name))
	if err != nil {
		return err
	}
	fmt.Printf("Setting Trigger Mask %q from database\n", strings.TrimSpace(name))
	return con.dev.SetTriggerMask(mask)
}

func (con *console) hitPattern() error {
	hp, _, err := con.dev.ReadHitPattern()
	if err != nil {
		return err
	}
	fmt.Printf("\n")
	fmt.Print(hp.Grid())
	return nil
}

func (con *console) serdesConfig() error {
	v, err := con.promptHex("Enter Array Board config in hex: ", 16)
	if err != nil {
		return err
	}
	return con.dev.SerdesConfig(uint16(v))
}

func (con *console) tackTypeMode() error {
	typ, err := con.promptInt("Enter Tack Type (0-3): ")
	if err != nil {
		return err
	}
	mode, err := con.promptInt("Enter Tack Mode (0-3): ")
	if err != nil {
		return err
	}
	return con.dev.SetTackTypeMode(typ, mode)
}

func (con *console) trigAtTime() error {
	t, err := con.promptHex("Enter Trig at Time value in hex: ", 64)
	if err != nil {
		return err
	}
	return con.dev.TrigAtTime(t)
}

func (con *console) sendSync() error {
	fmt.Printf("Sending a SYNC message. If Target module has already been synced,\n")
	fmt.Printf("this will have no effect\n\n")
	return con.dev.SendSync()
}

func (con *console) holdoff() error {
	v, err := con.promptHex("Enter Hold Off in hex (~4 ns units): ", 16)
	if err != nil {
		return err
	}
	return con.dev.SetHoldoff(uint16(v))
}

func (con *console) capture(binary bool) error {
	freq, err := con.promptFloat("Enter the frequency of the hit pattern recording [Hz]: ")
	if err != nil {
		return err
	}
	dt, err := con.promptFloat("Enter the duration of the hit pattern recording [s]: ")
	if err != nil {
		return err
	}

	n := int(freq * dt)
	fmt.Printf("Hit patterns will be read for %0.1f s at a frequency of %0.1f Hz\n", dt, freq)
	fmt.Printf("Will read %d patterns with a period of %0.3f s\n\n", n, 1/freq)

	fname := "hitpattern.txt"
	if binary {
		fname = "hitpattern.bin"
	}
	f, err := os.Create(fname)
	if err != nil {
		return fmt.Errorf("could not create %q: %w", fname, err)
	}
	defer f.Close()

	hdr := bpio.Header{N: int32(n), Freq: float32(freq)}
	var sink bp.SampleWriter
	switch {
	case binary:
		sink = bpio.NewWriter(f, hdr)
	default:
		sink = bpio.NewTextWriter(f, hdr)
	}

	occ := bp.NewOccupancy()
	err = con.dev.Capture(context.Background(), n, freq, sink, occ, stepPrinter{})
	if err != nil {
		return err
	}

	err = f.Close()
	if err != nil {
		return fmt.Errorf("could not close %q: %w", fname, err)
	}
	fmt.Printf("Closing hit pattern file\n\n")

	return con.writeOccupancy(occ)
}

// writeOccupancy saves the per-channel occupancy of the last capture
// run alongside the hit pattern log.
func (con *console) writeOccupancy(occ *bp.Occupancy) error {
	f, err := os.Create("occupancy.yoda")
	if err != nil {
		return fmt.Errorf("could not create occupancy file: %w", err)
	}
	defer f.Close()

	err = occ.WriteYODA(f)
	if err != nil {
		return err
	}

	err = f.Close()
	if err != nil {
		return fmt.Errorf("could not close occupancy file: %w", err)
	}
	return nil
}

// stepPrinter echoes capture progress to the operator.
type stepPrinter struct{}

func (stepPrinter) WriteSample(s bp.Sample) error {
	fmt.Printf("Step: %d\n", s.Step+1)
	return nil
}

func (con *console) promptInt(prompt string) (int, error) {
	line, err := con.term.Prompt(prompt)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil {
		return 0, fmt.Errorf("not a valid entry: %w", err)
	}
	return v, nil
}

func (con *console) promptHex(prompt string, bits int) (uint64, error) {
	line, err := con.term.Prompt(prompt)
	if err != nil {
		return 0, err
	}
	raw := strings.TrimPrefix(strings.TrimSpace(line), "0x")
	v, err := strconv.ParseUint(raw, 16, bits)
	if err != nil {
		return 0, fmt.Errorf("not a valid entry: %w", err)
	}
	return v, nil
}

func (con *console) promptFloat(prompt string) (float64, error) {
	line, err := con.term.Prompt(prompt)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(line), 64)
	if err != nil {
		return 0, fmt.Errorf("not a valid entry: %w", err)
	}
	return v, nil
}
