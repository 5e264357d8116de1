package validation_test

import (
	"errors"
	"net/url"
	"testing"

	"github.com/aevon-lab/envelope/internal/config"
	"github.com/aevon-lab/envelope/internal/event"
	"github.com/aevon-lab/envelope/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type notAValidator struct{}

func localhost(t *testing.T) *url.URL {
	t.Helper()
	u, err := url.Parse("http://localhost")
	require.NoError(t, err)
	return u
}

// factoryFor wires a resolver that reads the plugin name from *name, so
// tests can flip the configuration between builds.
func factoryFor(reg *validation.Registry, name *string) *event.Factory {
	return event.NewFactory(event.WithValidatorSource(
		validation.NewResolver(reg, func() string { return *name }),
	))
}

func TestRegistry_RegisterAndLookup(t *testing.T) {
	reg := validation.NewRegistry()
	validation.RegisterBuiltins(reg)
	reg.RegisterValidator("com.example.Other", validation.RequiredExtensions{"tenant"})

	t.Run("Lookup - registered", func(t *testing.T) {
		factory, err := reg.Lookup(validation.NamespaceValidatorName)
		require.NoError(t, err)
		instance, err := factory()
		require.NoError(t, err)
		assert.Implements(t, (*event.Validator)(nil), instance)
	})

	t.Run("Lookup - unknown", func(t *testing.T) {
		_, err := reg.Lookup("com.example.Unknown")
		require.Error(t, err)
	})

	t.Run("Names are sorted", func(t *testing.T) {
		assert.Equal(t, []string{"com.example.Other", validation.NamespaceValidatorName}, reg.Names())
	})

	t.Run("Unregister", func(t *testing.T) {
		reg.Unregister("com.example.Other")
		assert.False(t, reg.IsRegistered("com.example.Other"))
		assert.True(t, reg.IsRegistered(validation.NamespaceValidatorName))
	})
}

func TestResolver_Outcomes(t *testing.T) {
	reg := validation.NewRegistry()
	validation.RegisterBuiltins(reg)
	reg.RegisterValidator("io.cloudevents.core.v1.CustomCloudEventValidator", notAValidator{})
	reg.Register("com.example.Failing", func() (any, error) { return nil, errors.New("boom") })
	reg.Register("com.example.Panicking", func() (any, error) { panic("bad plugin") })
	reg.Register("com.example.Nil", func() (any, error) { return nil, nil })

	tests := []struct {
		name       string
		class      string
		extensions map[string]event.ExtensionValue
		wantErr    error
		wantMsg    string
	}{
		{
			name:  "no class configured uses the default validator",
			class: "",
		},
		{
			name:    "class not found",
			class:   "io.cloudevents.core.v1.CustomCloudEventValidatorTest",
			wantErr: event.ErrValidatorLoad,
			wantMsg: "Unable to load the header.validator.class passed as vm argument",
		},
		{
			name:    "factory error",
			class:   "com.example.Failing",
			wantErr: event.ErrValidatorLoad,
			wantMsg: "boom",
		},
		{
			name:    "factory panic",
			class:   "com.example.Panicking",
			wantErr: event.ErrValidatorLoad,
			wantMsg: "bad plugin",
		},
		{
			name:    "factory returns nil",
			class:   "com.example.Nil",
			wantErr: event.ErrValidatorLoad,
			wantMsg: "returned nil",
		},
		{
			name:    "not a validator",
			class:   "io.cloudevents.core.v1.CustomCloudEventValidator",
			wantErr: event.ErrValidatorType,
			wantMsg: "Passed class is not an instance of CloudEventValidator",
		},
		{
			name:    "namespace extension missing",
			class:   validation.NamespaceValidatorName,
			wantErr: event.ErrMissingAttribute,
			wantMsg: "Extension 'namespace' cannot be null",
		},
		{
			name:       "namespace extension present",
			class:      validation.NamespaceValidatorName,
			extensions: map[string]event.ExtensionValue{"namespace": event.String("payments")},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			class := tc.class
			b := factoryFor(reg, &class).V1().
				WithID("000").
				WithSource(localhost(t)).
				WithType("aaa").
				WithExtension("astring", event.Int(10))
			for name, v := range tc.extensions {
				b.WithExtension(name, v)
			}

			e, err := b.Build()
			if tc.wantErr == nil {
				require.NoError(t, err)
				require.NotNil(t, e)
				return
			}
			require.Error(t, err)
			assert.Nil(t, e)
			assert.ErrorIs(t, err, tc.wantErr)
			assert.Contains(t, err.Error(), tc.wantMsg)
		})
	}
}

func TestResolver_NilRegistry(t *testing.T) {
	r := validation.NewResolver(nil, func() string { return "com.example.Any" })

	var v event.Validator
	var err error
	require.NotPanics(t, func() { v, err = r.Resolve() })
	assert.Nil(t, v)
	require.ErrorIs(t, err, event.ErrValidatorLoad)
	assert.Contains(t, err.Error(), "no validator registry configured")

	v, err = validation.NewResolver(nil, func() string { return "" }).Resolve()
	require.NoError(t, err)
	assert.NotNil(t, v)
}

func TestResolver_ConfigurationChangeVisibleOnNextBuild(t *testing.T) {
	reg := validation.NewRegistry()
	validation.RegisterBuiltins(reg)

	live, err := config.NewLive("")
	require.NoError(t, err)

	f := event.NewFactory(event.WithValidatorSource(validation.NewResolver(reg, live.ValidatorClass)))
	b := f.V1().WithID("000").WithSource(localhost(t)).WithType("aaa")

	_, err = b.Build()
	require.NoError(t, err)

	require.NoError(t, live.Set(validation.ClassKey, validation.NamespaceValidatorName))
	_, err = b.Build()
	require.EqualError(t, err, "Extension 'namespace' cannot be null")

	require.NoError(t, live.Set(validation.ClassKey, "com.example.Missing"))
	_, err = b.Build()
	require.ErrorIs(t, err, event.ErrValidatorLoad)

	require.NoError(t, live.Reload())
	_, err = b.Build()
	require.NoError(t, err)
}

func TestRequiredExtensions_ReportsInOrder(t *testing.T) {
	f := event.NewFactory(event.WithValidator(validation.RequiredExtensions{"tenant", "namespace"}))
	_, err := f.V03().WithID("000").WithSource(localhost(t)).WithType("aaa").Build()
	require.Error(t, err)

	var agg *event.ViolationsError
	require.ErrorAs(t, err, &agg)
	require.Len(t, agg.Errors, 2)
	assert.EqualError(t, agg.Errors[0], "Extension 'tenant' cannot be null")
	assert.EqualError(t, agg.Errors[1], "Extension 'namespace' cannot be null")
}
