package mongodb

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"setdb-init/internal/bootstrap/domain/model"
	apperrors "setdb-init/internal/shared/errors"
	"setdb-init/internal/shared/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestCommandBuilders(t *testing.T) {
	principal := &model.Principal{
		Username: "app_user",
		Password: "DevPassword123",
		Roles:    []model.RoleBinding{{Role: "readWrite", Database: "rust_app_db"}},
	}

	roles := bson.A{bson.D{{Key: "role", Value: "readWrite"}, {Key: "db", Value: "rust_app_db"}}}

	assert.Equal(t, bson.D{{Key: "usersInfo", Value: "app_user"}}, usersInfoCommand("app_user"))
	assert.Equal(t, bson.D{
		{Key: "createUser", Value: "app_user"},
		{Key: "pwd", Value: "DevPassword123"},
		{Key: "roles", Value: roles},
	}, createUserCommand(principal))
	assert.Equal(t, bson.D{
		{Key: "grantRolesToUser", Value: "app_user"},
		{Key: "roles", Value: roles},
	}, grantRolesCommand("app_user", principal.Roles))
}

func TestUsersInfoDecoding(t *testing.T) {
	raw, err := bson.Marshal(bson.D{
		{Key: "users", Value: bson.A{
			bson.D{
				{Key: "_id", Value: "rust_app_db.app_user"},
				{Key: "user", Value: "app_user"},
				{Key: "db", Value: "rust_app_db"},
				{Key: "roles", Value: bson.A{bson.D{{Key: "role", Value: "readWrite"}, {Key: "db", Value: "rust_app_db"}}}},
			},
		}},
		{Key: "ok", Value: 1.0},
	})
	require.NoError(t, err)

	var result usersInfoResult
	require.NoError(t, bson.Unmarshal(raw, &result))
	require.Len(t, result.Users, 1)

	p := result.Users[0].toPrincipal()
	assert.Equal(t, "app_user", p.Username)
	assert.Empty(t, p.Password)
	assert.True(t, p.HasRole(model.RoleBinding{Role: "readWrite", Database: "rust_app_db"}))
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want apperrors.ErrorType
	}{
		{name: "network label", err: mongo.CommandError{Code: 6, Message: "host unreachable", Labels: []string{"NetworkError"}}, want: apperrors.ErrorTypeConnectionUnavailable},
		{name: "deadline", err: fmt.Errorf("server selection: %w", context.DeadlineExceeded), want: apperrors.ErrorTypeConnectionUnavailable},
		{name: "disconnected", err: mongo.ErrClientDisconnected, want: apperrors.ErrorTypeConnectionUnavailable},
		{name: "unauthorized", err: mongo.CommandError{Code: codeUnauthorized, Name: "Unauthorized"}, want: apperrors.ErrorTypeAuthorization},
		{name: "auth failed", err: mongo.CommandError{Code: codeAuthenticationFailed, Name: "AuthenticationFailed"}, want: apperrors.ErrorTypeAuthorization},
		{name: "other server error", err: mongo.CommandError{Code: 2, Name: "BadValue"}, want: apperrors.ErrorTypeInfrastructure},
		{name: "already classified", err: apperrors.NewDuplicateCollectionError("setgames", "rust_app_db"), want: apperrors.ErrorTypeDuplicateCollection},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := classifyError(tc.err, "op")
			require.Error(t, got)
			assert.Equal(t, tc.want, apperrors.TypeOf(got))
		})
	}

	assert.NoError(t, classifyError(nil, "op"))
}

func TestClassifyError_KeepsSentinels(t *testing.T) {
	timeout := classifyError(context.DeadlineExceeded, "ping")
	assert.True(t, errors.Is(timeout, apperrors.ErrConnectionUnavailable))
	assert.True(t, errors.Is(timeout, context.DeadlineExceeded))

	denied := classifyError(mongo.CommandError{Code: codeUnauthorized, Name: "Unauthorized"}, "createUser")
	assert.True(t, errors.Is(denied, apperrors.ErrForbidden))
	assert.True(t, apperrors.IsAuthorization(denied))
}

func TestHasErrorCode(t *testing.T) {
	assert.True(t, hasErrorCode(mongo.CommandError{Code: codeUserAlreadyExists}, codeUserAlreadyExists))
	assert.True(t, hasErrorCode(fmt.Errorf("wrapped: %w", mongo.CommandError{Code: codeNamespaceExists}), codeNamespaceExists))
	assert.False(t, hasErrorCode(mongo.CommandError{Code: codeNamespaceExists}, codeUserAlreadyExists))
	assert.False(t, hasErrorCode(errors.New("plain"), codeNamespaceExists))
	assert.False(t, hasErrorCode(nil, codeNamespaceExists))
}

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewLogSink(logger.NewLoggerWithWriter(&buf, "debug", "json"))

	sink.Info(0, "Command started", "commandName", "createUser", "databaseName", "rust_app_db")
	sink.Info(1, "Server heartbeat", "serverHost")
	sink.Error(errors.New("boom"), "Command failed", "commandName", "create")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)

	var entries []map[string]interface{}
	for _, line := range lines {
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		entries = append(entries, entry)
	}

	assert.Equal(t, "info", entries[0]["level"])
	assert.Equal(t, "createUser", entries[0]["commandName"])
	assert.Equal(t, "mongo-driver", entries[0]["component"])
	assert.Equal(t, "debug", entries[1]["level"])
	assert.Contains(t, entries[1], "serverHost")
	assert.Equal(t, "error", entries[2]["level"])
	assert.Equal(t, "boom", entries[2]["error"])
}

func TestClientOptions(t *testing.T) {
	opts := clientOptions(ClientConfig{
		URI:            "mongodb://localhost:27017",
		ConnectTimeout: 3 * time.Second,
		DriverLog:      true,
	}, logger.NewLoggerWithWriter(&bytes.Buffer{}, "info", "json"))

	require.NotNil(t, opts.AppName)
	assert.Equal(t, appName, *opts.AppName)
	require.NotNil(t, opts.ConnectTimeout)
	assert.Equal(t, 3*time.Second, *opts.ConnectTimeout)
	require.NotNil(t, opts.ServerSelectionTimeout)
	assert.Equal(t, 3*time.Second, *opts.ServerSelectionTimeout)
	assert.NotNil(t, opts.LoggerOptions)

	plain := clientOptions(ClientConfig{URI: "mongodb://localhost:27017"}, nil)
	assert.Nil(t, plain.LoggerOptions)
	assert.Nil(t, plain.ConnectTimeout)
}
