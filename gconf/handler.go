package gconf

import (
	"context"
	"reflect"

	"github.com/tokenvault/ledger"
	"github.com/tokenvault/ledger/errors"
	"github.com/tokenvault/ledger/x"
)

// OwnedConfig must have an Owner field. A configuration update message must
// be sent by an owner in order to be authorized to apply the change.
type OwnedConfig interface {
	Unmarshaler
	ValidMarshaler
	GetOwner() ledger.Address
}

// UpdateConfigurationHandler applies a configuration patch carried by a
// message with a "Patch" field.
type UpdateConfigurationHandler struct {
	pkg string
	// config is the prototype of the handled configuration type. It is
	// never written to.
	config    OwnedConfig
	auth      x.Authenticator
	initAdmin func(ledger.ReadOnlyKVStore) (ledger.Address, error)
}

var _ ledger.Handler = (*UpdateConfigurationHandler)(nil)

// NewUpdateConfigurationHandler returns a message handler that process
// configuration patch message.
//
// To pass authentication step, each message must be sent by the current
// configuration owner.
//
// When the configuration does not exist (it was not created via genesis), the
// optional initConfAdmin function provides the address allowed to create it.
// Once a configuration exists only its owner is authorized.
func NewUpdateConfigurationHandler(
	pkg string,
	config OwnedConfig,
	auth x.Authenticator,
	initConfAdmin func(ledger.ReadOnlyKVStore) (ledger.Address, error),
) UpdateConfigurationHandler {
	return UpdateConfigurationHandler{
		pkg:       pkg,
		config:    config,
		auth:      auth,
		initAdmin: initConfAdmin,
	}
}

func (h UpdateConfigurationHandler) Check(ctx context.Context, store ledger.KVStore, tx ledger.Tx) (*ledger.CheckResult, error) {
	if _, err := h.applyTx(ctx, store, tx); err != nil {
		return nil, err
	}
	return &ledger.CheckResult{}, nil
}

func (h UpdateConfigurationHandler) Deliver(ctx context.Context, store ledger.KVStore, tx ledger.Tx) (*ledger.DeliverResult, error) {
	config, err := h.applyTx(ctx, store, tx)
	if err != nil {
		return nil, err
	}
	return &ledger.DeliverResult{
		Events: []ledger.Event{
			ledger.NewEvent("config_updated", config, "package", h.pkg),
		},
	}, nil
}

// newConfig returns a zero configuration of the handled type. Every call
// works on its own copy, so a published event is never modified later.
func (h UpdateConfigurationHandler) newConfig() OwnedConfig {
	return reflect.New(reflect.TypeOf(h.config).Elem()).Interface().(OwnedConfig)
}

func (h UpdateConfigurationHandler) applyTx(ctx context.Context, store ledger.KVStore, tx ledger.Tx) (OwnedConfig, error) {
	config := h.newConfig()
	switch err := Load(store, h.pkg, config); {
	case err == nil:
		owner := config.GetOwner()
		if owner == nil {
			return nil, errors.Wrap(errors.ErrUnauthorized, "owner required")
		}
		if !h.auth.HasAddress(ctx, owner) {
			return nil, errors.Wrap(errors.ErrUnauthorized, "owner did not send the message")
		}
	case errors.ErrNotFound.Is(err):
		if h.initAdmin == nil {
			return nil, errors.Wrap(errors.ErrUnauthorized, "configuration does not exist and cannot be initialized")
		}
		admin, err := h.initAdmin(store)
		if err != nil {
			return nil, errors.Wrap(err, "get init admin")
		}
		if !h.auth.HasAddress(ctx, admin) {
			return nil, errors.Wrap(errors.ErrUnauthorized, "initialization admin required")
		}
	default:
		return nil, errors.Wrap(err, "load current configuration")
	}

	payload, err := patchPayload(tx)
	if err != nil {
		return nil, errors.Wrap(err, "cannot get message payload")
	}
	if err := patch(config, payload); err != nil {
		return nil, errors.Wrap(err, "cannot patch config with message payload")
	}

	if err := Save(store, h.pkg, config); err != nil {
		return nil, errors.Wrap(err, "cannot save updated config")
	}
	return config, nil
}

// patch copies the fields of payload into the config fields of the same
// name. A zero payload field leaves the configuration unchanged. A pointer
// payload field patching a non pointer config field is applied whenever it
// is not nil, which allows setting a zero value.
func patch(config OwnedConfig, payload interface{}) error {
	cval := reflect.ValueOf(config).Elem()
	pval := reflect.ValueOf(payload)
	if pval.Kind() != reflect.Ptr || pval.Elem().Kind() != reflect.Struct {
		return errors.Wrapf(errors.ErrInvalidMsg, "invalid patch type: %T", payload)
	}
	pval = pval.Elem()
	ptype := pval.Type()

	for i := 0; i < pval.NumField(); i++ {
		name := ptype.Field(i).Name
		dst := cval.FieldByName(name)
		if !dst.IsValid() || !dst.CanSet() {
			return errors.Wrapf(errors.ErrInvalidMsg, "config has no %q field", name)
		}
		got := pval.Field(i)

		switch {
		case got.Type().AssignableTo(dst.Type()):
			// Zero values do not update the original configuration.
			if isZero(got) {
				continue
			}
			dst.Set(got)
		case got.Kind() == reflect.Ptr && got.Type().Elem().AssignableTo(dst.Type()):
			if got.IsNil() {
				continue
			}
			dst.Set(got.Elem())
		default:
			return errors.Wrapf(errors.ErrInvalidMsg, "patch field %q doesn't match config", name)
		}
	}

	return nil
}

// isZero returns true if given value represents a zero value of a given type.
func isZero(val reflect.Value) bool {
	zero := reflect.Zero(val.Type()).Interface()
	return reflect.DeepEqual(val.Interface(), zero)
}

// patchPayload expects the transaction to have a message with a "Patch"
// struct pointer field. Content of this field is extracted and returned.
func patchPayload(tx ledger.Tx) (interface{}, error) {
	msg, err := tx.GetMsg()
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, errors.Wrap(errors.ErrEmpty, "message")
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}

	pval := reflect.ValueOf(msg)
	if pval.Kind() != reflect.Ptr || pval.Elem().Kind() != reflect.Struct {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "invalid message container value: %T", msg)
	}
	val := pval.Elem()

	field := val.FieldByName("Patch")
	if !field.IsValid() || field.Kind() != reflect.Ptr {
		return nil, errors.Wrapf(errors.ErrInvalidInput, `%T has no "Patch" field`, msg)
	}
	if field.IsNil() {
		return nil, errors.Wrap(errors.ErrInvalidState, `"Patch" field is required`)
	}
	if field.Elem().Kind() != reflect.Struct {
		return nil, errors.Wrap(errors.ErrInvalidInput, `"Patch" field is of a wrong type`)
	}
	return field.Interface(), nil
}
