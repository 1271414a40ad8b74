package devices

import (
	"fmt"

	"github.com/nerrad567/enodebd/internal/datamodel"
	"github.com/nerrad567/enodebd/internal/deviceconfig"
	"github.com/nerrad567/enodebd/internal/fleet"
	"github.com/nerrad567/enodebd/internal/statemachine"
)

// profile implements statemachine.Profile from a data model, a state table
// constructor and an optional post-process hook.
type profile struct {
	name   string
	model  *datamodel.Model
	states func(t statemachine.Timers) statemachine.Table
	reboot string
	post   func(desired, observed *deviceconfig.Store, settings fleet.Settings) error
}

func (p *profile) Name() string                { return p.name }
func (p *profile) DataModel() *datamodel.Model { return p.model }
func (p *profile) DisconnectedState() string   { return statemachine.StateWaitInform }
func (p *profile) FaultState() string          { return statemachine.StateUnexpectedFault }
func (p *profile) RebootState() string         { return p.reboot }

func (p *profile) States(t statemachine.Timers) statemachine.Table {
	return p.states(t)
}

func (p *profile) PostProcess(desired, observed *deviceconfig.Store, settings fleet.Settings) error {
	if p.post == nil {
		return nil
	}
	return p.post(desired, observed, settings)
}

// plmnMember describes one PLMN member path suffix and its type.
type plmnMember struct {
	template string
	suffix   string
	typ      datamodel.Type
}

// addPLMNFamily registers count PLMN list instances under listPath, which
// ends with "PLMNList.".
func addPLMNFamily(b *datamodel.Builder, listPath string, count int, countParam datamodel.Name, invasive bool, members []plmnMember) {
	for i := 1; i <= count; i++ {
		prefix := fmt.Sprintf("%s%d.", listPath, i)
		b.Add(datamodel.Descriptor{
			Name:     datamodel.Name(fmt.Sprintf(datamodel.PLMNObject, i)),
			Path:     prefix,
			Type:     datamodel.TypeObject,
			Invasive: invasive,
		})
		for _, m := range members {
			b.Add(datamodel.Descriptor{
				Name:     datamodel.Name(fmt.Sprintf(m.template, i)),
				Path:     prefix + m.suffix,
				Type:     m.typ,
				Invasive: invasive,
			})
		}
	}
	b.Family(datamodel.Family{
		Name:       datamodel.FamilyPLMN,
		Object:     datamodel.PLMNObject,
		Members:    datamodel.PLMNMembers(),
		Count:      count,
		CountParam: countParam,
	})
}

// standardPLMNMembers are the TR-196 PLMN list members with boolean
// reservation.
func standardPLMNMembers() []plmnMember {
	return []plmnMember{
		{datamodel.PLMNCellReserved, "CellReservedForOperatorUse", datamodel.TypeBoolean},
		{datamodel.PLMNEnable, "Enable", datamodel.TypeBoolean},
		{datamodel.PLMNPrimary, "IsPrimary", datamodel.TypeBoolean},
		{datamodel.PLMNID, "PLMNID", datamodel.TypeString},
	}
}

func addAll(b *datamodel.Builder, ds []datamodel.Descriptor) {
	for _, d := range ds {
		b.Add(d)
	}
}
