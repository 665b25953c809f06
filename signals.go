package encodedcol

import (
	"context"
	"time"

	"github.com/zoobzio/capitan"
)

// Signals for encoded column events.
var (
	SignalSchemaRegistered = capitan.NewSignal("encodedcol.schema.registered", "Schema compiled and cached")
	SignalColumnRegistered = capitan.NewSignal("encodedcol.column.registered", "Encoded column descriptor built")
	SignalEncodeComplete   = capitan.NewSignal("encodedcol.encode.complete", "Column value encoded")
	SignalCheckComplete    = capitan.NewSignal("encodedcol.check.complete", "Check method evaluated")
)

// Keys for typed event data.
var (
	KeyTypeName    = capitan.NewStringKey("type_name")
	KeyColumn      = capitan.NewStringKey("column")
	KeyBackend     = capitan.NewStringKey("backend")
	KeyColumnCount = capitan.NewIntKey("column_count")
	KeyDuration    = capitan.NewDurationKey("duration")
	KeyError       = capitan.NewErrorKey("error")
)

// emitSchemaRegistered emits an event when a schema is compiled.
func emitSchemaRegistered(ctx context.Context, typeName string, columns int) {
	capitan.Emit(ctx, SignalSchemaRegistered,
		KeyTypeName.Field(typeName),
		KeyColumnCount.Field(columns),
	)
}

// emitColumnRegistered emits an event when a column descriptor is built.
func emitColumnRegistered(ctx context.Context, typeName, column, backend string) {
	capitan.Emit(ctx, SignalColumnRegistered,
		KeyTypeName.Field(typeName),
		KeyColumn.Field(column),
		KeyBackend.Field(backend),
	)
}

// emitEncodeComplete emits an event when a column value is encoded.
func emitEncodeComplete(ctx context.Context, typeName, column, backend string, duration time.Duration, err error) {
	fields := []capitan.Field{
		KeyTypeName.Field(typeName),
		KeyColumn.Field(column),
		KeyBackend.Field(backend),
		KeyDuration.Field(duration),
	}
	if err != nil {
		fields = append(fields, KeyError.Field(err))
		capitan.Error(ctx, SignalEncodeComplete, fields...)
	} else {
		capitan.Emit(ctx, SignalEncodeComplete, fields...)
	}
}

// emitCheckComplete emits an event when a check method runs.
func emitCheckComplete(ctx context.Context, typeName, column, backend string, duration time.Duration, err error) {
	fields := []capitan.Field{
		KeyTypeName.Field(typeName),
		KeyColumn.Field(column),
		KeyBackend.Field(backend),
		KeyDuration.Field(duration),
	}
	if err != nil {
		fields = append(fields, KeyError.Field(err))
		capitan.Error(ctx, SignalCheckComplete, fields...)
	} else {
		capitan.Emit(ctx, SignalCheckComplete, fields...)
	}
}
