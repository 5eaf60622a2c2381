package ledger_test

import (
	"encoding/json"
	"fmt"
	"reflect"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tokenvault/ledger"
	"github.com/tokenvault/ledger/errors"
)

func TestAddressPrinting(t *testing.T) {
	Convey("test hexadecimal address printing", t, func() {
		addr := ledger.NewCondition("sigs", "ed25519", []byte("ABCD123456LHB")).Address()

		So(addr.String(), ShouldEqual, fmt.Sprintf("%X", []byte(addr)))
		So(ledger.Address(nil).String(), ShouldEqual, "(nil)")
	})

	Convey("test condition printing keeps extension and type readable", t, func() {
		cond := ledger.NewCondition("escrow", "custody", []byte{0xCA, 0xFE})

		So(cond.String(), ShouldEqual, "escrow/custody/CAFE")
	})
}

func TestAddressUnmarshalJSON(t *testing.T) {
	cond := ledger.NewCondition("foo", "bar", []byte("conditiondata"))
	addr := cond.Address()

	cases := map[string]struct {
		json     string
		wantErr  *errors.Error
		wantAddr ledger.Address
	}{
		"default decoding": {
			json:     fmt.Sprintf("%q", addr.String()),
			wantAddr: addr,
		},
		"hex decoding": {
			json:     fmt.Sprintf(`"hex:%s"`, addr),
			wantAddr: addr,
		},
		"cond decoding": {
			json:     `"cond:foo/bar/636f6e646974696f6e64617461"`,
			wantAddr: addr,
		},
		"bech32 decoding": {
			json:     fmt.Sprintf(`"bech32:%s"`, addr.Bech32()),
			wantAddr: addr,
		},
		"hex of a wrong length": {
			json:    `"6865782d61646472"`,
			wantErr: errors.ErrInvalidInput,
		},
		"invalid condition format": {
			json:    `"cond:foo/636f6e646974696f6e64617461"`,
			wantErr: errors.ErrInvalidInput,
		},
		"invalid condition data": {
			json:    `"cond:foo/bar/zzzzz"`,
			wantErr: errors.ErrInvalidInput,
		},
		"unknown format": {
			json:    `"foobar:xxx"`,
			wantErr: errors.ErrInvalidType,
		},
		"zero address": {
			json:     `""`,
			wantAddr: nil,
		},
		"zero cond address": {
			json:     `"cond:"`,
			wantAddr: nil,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			var a ledger.Address
			err := json.Unmarshal([]byte(tc.json), &a)
			if !tc.wantErr.Is(err) {
				t.Fatalf("got error: %+v", err)
			}
			if err == nil && !reflect.DeepEqual(a, tc.wantAddr) {
				t.Fatalf("got address: %q", a)
			}
		})
	}
}

func TestAddressMarshalRoundTrip(t *testing.T) {
	addr := ledger.NewCondition("staking", "custody", []byte("stakes")).Address()
	raw, err := json.Marshal(addr)
	require.NoError(t, err)

	var got ledger.Address
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, addr, got)
}

func TestParseCondition(t *testing.T) {
	cases := map[string]struct {
		source  string
		want    ledger.Condition
		wantErr *errors.Error
	}{
		"valid": {
			source: "sigs/ed25519/CAFE",
			want:   ledger.NewCondition("sigs", "ed25519", []byte{0xCA, 0xFE}),
		},
		"missing section": {
			source:  "sigs/CAFE",
			wantErr: errors.ErrInvalidInput,
		},
		"extension too short": {
			source:  "a/ed25519/CAFE",
			wantErr: errors.ErrInvalidInput,
		},
		"no data": {
			source:  "sigs/ed25519/",
			wantErr: errors.ErrInvalidInput,
		},
		"empty": {
			source:  "",
			wantErr: errors.ErrInvalidInput,
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			got, err := ledger.ParseCondition(tc.source)
			if !tc.wantErr.Is(err) {
				t.Fatalf("got error: %+v", err)
			}
			if err == nil && !got.Equals(tc.want) {
				t.Fatalf("want %q, got %q", tc.want, got)
			}
		})
	}
}

func TestConditionMarshalJSON(t *testing.T) {
	cases := map[string]struct {
		source   ledger.Condition
		wantJson string
	}{
		"cond encoding": {
			source:   ledger.NewCondition("foo", "bar", []byte("conditiondata")),
			wantJson: `"foo/bar/636F6E646974696F6E64617461"`,
		},
		"nil encoding": {
			source:   nil,
			wantJson: `""`,
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			got, err := json.Marshal(tc.source)
			require.NoError(t, err)
			assert.Equal(t, tc.wantJson, string(got))

			var back ledger.Condition
			require.NoError(t, json.Unmarshal(got, &back))
			assert.True(t, back.Equals(tc.source))
		})
	}
}
