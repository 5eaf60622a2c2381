package oracle

import (
	"github.com/tokenvault/ledger"
	"github.com/tokenvault/ledger/errors"
)

// PublishMsg attests a value under a data key. It must be sent by the
// oracle account itself. Publishing again under the same key replaces the
// previous value.
type PublishMsg struct {
	Oracle  ledger.Address `json:"oracle"`
	DataKey []byte         `json:"data_key"`
	Value   []byte         `json:"value"`
}

var _ ledger.Msg = (*PublishMsg)(nil)

// Path returns the routing path for this message
func (PublishMsg) Path() string {
	return "oracle/publish"
}

// Validate makes sure that this is sensible
func (m *PublishMsg) Validate() error {
	var err error
	err = errors.AppendField(err, "Oracle", m.Oracle.Validate())
	err = errors.AppendField(err, "DataKey", validateDataKey(m.DataKey))
	if len(m.Value) > maxValueSize {
		err = errors.AppendField(err, "Value", errors.ErrInvalidInput)
	}
	return err
}
