package mongodb

import (
	"context"

	"setdb-init/internal/bootstrap/domain/model"
	apperrors "setdb-init/internal/shared/errors"
	"setdb-init/internal/shared/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoAdminRepository implements the AdminRepository interface on a mongo client
type MongoAdminRepository struct {
	client *mongo.Client
	logger logger.Logger
}

// NewMongoAdminRepository creates a new MongoDB admin repository
func NewMongoAdminRepository(client *mongo.Client, log logger.Logger) *MongoAdminRepository {
	if log == nil {
		log = logger.Default()
	}
	return &MongoAdminRepository{
		client: client,
		logger: log.WithComponent("mongodb"),
	}
}

type roleDocument struct {
	Role string `bson:"role"`
	DB   string `bson:"db"`
}

type userDocument struct {
	User  string         `bson:"user"`
	DB    string         `bson:"db"`
	Roles []roleDocument `bson:"roles"`
}

type usersInfoResult struct {
	Users []userDocument `bson:"users"`
}

func (u userDocument) toPrincipal() *model.Principal {
	p := &model.Principal{Username: u.User, Roles: make([]model.RoleBinding, 0, len(u.Roles))}
	for _, r := range u.Roles {
		p.Roles = append(p.Roles, model.RoleBinding{Role: r.Role, Database: r.DB})
	}
	return p
}

func rolesArray(roles []model.RoleBinding) bson.A {
	arr := make(bson.A, 0, len(roles))
	for _, r := range roles {
		arr = append(arr, bson.D{{Key: "role", Value: r.Role}, {Key: "db", Value: r.Database}})
	}
	return arr
}

func usersInfoCommand(username string) bson.D {
	return bson.D{{Key: "usersInfo", Value: username}}
}

func createUserCommand(p *model.Principal) bson.D {
	return bson.D{
		{Key: "createUser", Value: p.Username},
		{Key: "pwd", Value: p.Password},
		{Key: "roles", Value: rolesArray(p.Roles)},
	}
}

func grantRolesCommand(username string, roles []model.RoleBinding) bson.D {
	return bson.D{
		{Key: "grantRolesToUser", Value: username},
		{Key: "roles", Value: rolesArray(roles)},
	}
}

// Ping verifies the primary is reachable
func (r *MongoAdminRepository) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx, readpref.Primary()); err != nil {
		return classifyError(err, "ping")
	}
	return nil
}

// ListDatabases returns the names of all databases on the server
func (r *MongoAdminRepository) ListDatabases(ctx context.Context) ([]string, error) {
	names, err := r.client.ListDatabaseNames(ctx, bson.D{})
	if err != nil {
		return nil, classifyError(err, "listDatabases")
	}
	return names, nil
}

// GetUser looks up a principal with usersInfo
func (r *MongoAdminRepository) GetUser(ctx context.Context, database, username string) (*model.Principal, error) {
	var result usersInfoResult
	err := r.client.Database(database).RunCommand(ctx, usersInfoCommand(username)).Decode(&result)
	if err != nil {
		return nil, classifyError(err, "usersInfo")
	}

	for _, u := range result.Users {
		if u.User == username && u.DB == database {
			return u.toPrincipal(), nil
		}
	}
	return nil, nil
}

// CreateUser creates the principal on database. The server hashes the password.
func (r *MongoAdminRepository) CreateUser(ctx context.Context, database string, principal *model.Principal) error {
	if principal == nil {
		return apperrors.NewValidationError("principal cannot be nil")
	}

	err := r.client.Database(database).RunCommand(ctx, createUserCommand(principal)).Err()
	if hasErrorCode(err, codeUserAlreadyExists) {
		return apperrors.NewDuplicatePrincipalError(principal.Username, database)
	}
	if err != nil {
		return classifyError(err, "createUser")
	}

	r.logger.WithFields(map[string]interface{}{
		"user":     principal.Username,
		"database": database,
	}).Debug("User created")
	return nil
}

// GrantRoles adds role bindings to an existing principal
func (r *MongoAdminRepository) GrantRoles(ctx context.Context, database, username string, roles []model.RoleBinding) error {
	if len(roles) == 0 {
		return nil
	}
	if err := r.client.Database(database).RunCommand(ctx, grantRolesCommand(username, roles)).Err(); err != nil {
		return classifyError(err, "grantRolesToUser")
	}
	return nil
}

// CreateCollection creates an empty collection
func (r *MongoAdminRepository) CreateCollection(ctx context.Context, database, name string) error {
	err := r.client.Database(database).CreateCollection(ctx, name)
	if hasErrorCode(err, codeNamespaceExists) {
		return apperrors.NewDuplicateCollectionError(name, database)
	}
	if err != nil {
		return classifyError(err, "create")
	}
	return nil
}

// ListCollections returns the collection names of database
func (r *MongoAdminRepository) ListCollections(ctx context.Context, database string) ([]string, error) {
	names, err := r.client.Database(database).ListCollectionNames(ctx, bson.D{})
	if err != nil {
		return nil, classifyError(err, "listCollections")
	}
	return names, nil
}

// CountDocuments returns the number of documents in a collection
func (r *MongoAdminRepository) CountDocuments(ctx context.Context, database, collection string) (int64, error) {
	n, err := r.client.Database(database).Collection(collection).CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, classifyError(err, "count")
	}
	return n, nil
}
