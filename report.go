package main

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"ssdflashid/flash"
	"ssdflashid/nanddb"
)

// Report is what one scan found, in the shape printed to stdout.
type Report struct {
	Device     string       `yaml:"device"`
	Bus        string       `yaml:"bus"`
	Model      string       `yaml:"model"`
	Serial     string       `yaml:"serial"`
	Firmware   string       `yaml:"firmware"`
	Controller string       `yaml:"controller"`
	Family     string       `yaml:"family"`
	Banks      []BankReport `yaml:"banks"`

	result *flash.Result
}

// BankReport is one populated flash bank.
type BankReport struct {
	Bank        uint32 `yaml:"bank"`
	ID          string `yaml:"id"`
	Description string `yaml:"description,omitempty"`
}

func (r *Report) setResult(res *flash.Result, raw bool) {
	r.result = res
	r.Controller = res.Controller
	r.Banks = make([]BankReport, 0, len(res.Banks))
	for _, b := range res.Banks {
		br := BankReport{Bank: b.Num, ID: nanddb.FormatHex(b.ID[:])}
		if !raw {
			br.Description = nanddb.Describe(b.ID[:])
		}
		r.Banks = append(r.Banks, br)
	}
}

// Write renders r as "text" or "yaml".
func (r *Report) Write(w io.Writer, format string, raw bool) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	}
	return r.writeText(w, raw)
}

func (r *Report) writeText(w io.Writer, raw bool) error {
	fmt.Fprintf(w, "Model      : %s\n", r.Model)
	fmt.Fprintf(w, "Firmware   : %s\n", r.Firmware)
	fmt.Fprintf(w, "Controller : %s (%s)\n", r.Controller, r.Family)
	fmt.Fprintln(w)
	if len(r.Banks) == 0 {
		_, err := fmt.Fprintln(w, "no flash banks detected")
		return err
	}
	for _, b := range r.Banks {
		var err error
		if raw || b.Description == "" {
			_, err = fmt.Fprintf(w, "Bank%02d: %s\n", b.Bank, b.ID)
		} else {
			_, err = fmt.Fprintf(w, "Bank%02d: %s - %s\n", b.Bank, b.ID, b.Description)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
