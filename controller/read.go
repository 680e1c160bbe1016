package controller

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"ssdflashid/ata"
	"ssdflashid/flash"
)

// ReadNVMe runs the extractor of t's family.
func ReadNVMe(dev NVMe, t Type) (*flash.Result, error) {
	log.WithField("type", t.String()).Debug("reading nvme flash ids")
	switch t.Family {
	case SMI:
		return ReadSMI(dev)
	case Realtek:
		return ReadRealtek(dev, t.Variant)
	case Phison:
		return ReadPhison(dev)
	case Maxio:
		return ReadMaxio(dev)
	case Marvell:
		return ReadMarvell(dev)
	case Innogrit:
		return ReadInnogrit(dev)
	case Tenafe:
		return ReadTenafe(dev)
	}
	return nil, fmt.Errorf("%q is not an nvme controller type", t.Family)
}

// Least invasive first.
var sataAutoOrder = []Family{Yeestor, SMISATA, SandForce, JMicron, RealtekSATA}

// identifyAttempt names the IDENTIFY fallback of the auto-detect chain.
const identifyAttempt = "identify"

// SATAHint returns the family and part implied by an ATA firmware revision.
func SATAHint(firmware string) (Family, string, bool) {
	if part, ok := matchPrefix(smiSATAFirmware, firmware); ok {
		return SMISATA, part, true
	}
	if part, ok := matchPrefix(realtekSATAFirmware, firmware); ok {
		return RealtekSATA, part, true
	}
	return Unknown, "", false
}

// ReadSATAFamily runs the extractor of one SATA family.
func ReadSATAFamily(dev ATA, f Family) (*flash.Result, error) {
	switch f {
	case JMicron:
		fw, err := ReadJMicronFirmwareID(dev)
		if err != nil {
			return nil, err
		}
		return ReadJMicron(dev, fw)
	case SMISATA:
		return ReadSMISATA(dev)
	case Yeestor:
		return ReadYeestor(dev)
	case SandForce:
		return ReadSandForce(dev)
	case RealtekSATA:
		return ReadRealtekSATA(dev)
	}
	return nil, fmt.Errorf("%q is not a sata controller type", f)
}

// SATAPlan lists the attempts ReadSATA makes: the forced family alone; else
// the family named by the firmware revision alone; else every family in
// least-invasive order followed by the IDENTIFY fallback.
func SATAPlan(dev ATA, id *ata.Identity, forced Family) ([]flash.Attempt, error) {
	one := func(f Family) []flash.Attempt {
		return []flash.Attempt{{Name: f.String(), Run: func() (*flash.Result, error) { return ReadSATAFamily(dev, f) }}}
	}
	if forced != Unknown {
		if forced.Bus() != BusSATA {
			return nil, fmt.Errorf("controller type %q is not supported for sata devices (valid: %s)",
				forced, FamilyNames(sataFamilies))
		}
		return one(forced), nil
	}
	if f, part, ok := SATAHint(id.Firmware); ok {
		log.WithFields(log.Fields{"family": f.String(), "part": part}).Info("firmware revision names the controller")
		return one(f), nil
	}

	var attempts []flash.Attempt
	for _, f := range sataAutoOrder {
		attempts = append(attempts, one(f)...)
	}
	attempts = append(attempts, flash.Attempt{Name: identifyAttempt, Run: func() (*flash.Result, error) {
		if res, ok := FlashIDFromIdentify(id.Raw); ok {
			return res, nil
		}
		return nil, fmt.Errorf("no flash id in identify data: %w", flash.ErrEmpty)
	}})
	return attempts, nil
}

// ReadSATA reads flash ids from a SATA device following SATAPlan. It returns
// the result and the display name of the family that produced it. In the
// auto-detect chain the first family that does not fail wins, even with no
// banks, so more invasive families are never tried after it.
func ReadSATA(dev ATA, id *ata.Identity, forced Family, obs flash.Observer) (*flash.Result, string, error) {
	attempts, err := SATAPlan(dev, id, forced)
	if err != nil {
		return nil, "", err
	}
	res, name, err := flash.FirstOK(attempts, obs)
	if err != nil {
		return nil, "", fmt.Errorf("no sata vendor command succeeded: %w", err)
	}
	return res, sataDisplayName(name), nil
}

func sataDisplayName(attempt string) string {
	if attempt == identifyAttempt {
		return "SATA"
	}
	if f, err := ParseFamily(attempt); err == nil {
		return f.DisplayName()
	}
	return attempt
}
