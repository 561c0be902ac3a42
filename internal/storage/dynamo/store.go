package dynamo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"cuentas/internal/core"
	"cuentas/internal/ports"
)

func idKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{"id": &types.AttributeValueMemberS{Value: id}}
}

func isConditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}

// scanAll reads every item of a table, following pagination.
func scanAll[T any](ctx context.Context, api API, table string) ([]T, error) {
	var out []T
	p := dynamodb.NewScanPaginator(api, &dynamodb.ScanInput{TableName: aws.String(table)})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		var items []T
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
			return nil, fmt.Errorf("unmarshal %s: %w", table, err)
		}
		out = append(out, items...)
	}
	return out, nil
}

// table stores one utility collection. Period uniqueness is checked against a
// scan before writing; DynamoDB offers no cheap secondary unique constraint.
type table[R core.Record] struct {
	api     API
	name    string
	utility core.Utility
	setID   func(R, string) R
}

func (t *table[R]) clash(ctx context.Context, r R, update bool) error {
	all, err := scanAll[R](ctx, t.api, t.name)
	if err != nil {
		return err
	}
	return core.CheckPeriodUnique(t.utility, r, all, update)
}

func (t *table[R]) Create(ctx context.Context, r R) (R, error) {
	var zero R
	if err := t.clash(ctx, r, false); err != nil {
		return zero, err
	}
	r = t.setID(r, uuid.NewString())
	av, err := attributevalue.MarshalMap(r)
	if err != nil {
		return zero, fmt.Errorf("marshal %s record: %w", t.utility, err)
	}
	_, err = t.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(t.name),
		Item:                     av,
		ConditionExpression:      aws.String("attribute_not_exists(#id)"),
		ExpressionAttributeNames: map[string]string{"#id": "id"},
	})
	if isConditionFailed(err) {
		return zero, fmt.Errorf("%s record %s: %w", t.utility, r.RecordID(), ports.ErrConflict)
	}
	if err != nil {
		return zero, fmt.Errorf("put %s record: %w", t.utility, err)
	}
	return r, nil
}

func (t *table[R]) Update(ctx context.Context, r R) error {
	if err := t.clash(ctx, r, true); err != nil {
		return err
	}
	av, err := attributevalue.MarshalMap(r)
	if err != nil {
		return fmt.Errorf("marshal %s record: %w", t.utility, err)
	}
	_, err = t.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(t.name),
		Item:                     av,
		ConditionExpression:      aws.String("attribute_exists(#id)"),
		ExpressionAttributeNames: map[string]string{"#id": "id"},
	})
	if isConditionFailed(err) {
		return ports.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update %s record %s: %w", t.utility, r.RecordID(), err)
	}
	return nil
}

func (t *table[R]) Delete(ctx context.Context, id string) error {
	_, err := t.api.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                aws.String(t.name),
		Key:                      idKey(id),
		ConditionExpression:      aws.String("attribute_exists(#id)"),
		ExpressionAttributeNames: map[string]string{"#id": "id"},
	})
	if isConditionFailed(err) {
		return ports.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("delete %s record %s: %w", t.utility, id, err)
	}
	return nil
}

func (t *table[R]) Get(ctx context.Context, id string) (R, error) {
	var r R
	out, err := t.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(t.name),
		Key:            idKey(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return r, fmt.Errorf("get %s record %s: %w", t.utility, id, err)
	}
	if len(out.Item) == 0 {
		return r, ports.ErrNotFound
	}
	if err := attributevalue.UnmarshalMap(out.Item, &r); err != nil {
		return r, fmt.Errorf("unmarshal %s record: %w", t.utility, err)
	}
	return r, nil
}

func (t *table[R]) List(ctx context.Context) ([]R, error) {
	out, err := scanAll[R](ctx, t.api, t.name)
	if err != nil {
		return nil, err
	}
	core.SortRecords(out)
	return out, nil
}

// Tables names the DynamoDB table of each collection.
type Tables struct {
	Water, Electricity, Internet, Users, KV string
}

// DefaultTables prefixes the collection names, e.g. "cuentas_water".
func DefaultTables(prefix string) Tables {
	return Tables{
		Water:       prefix + "water",
		Electricity: prefix + "electricity",
		Internet:    prefix + "internet",
		Users:       prefix + "users",
		KV:          prefix + "kv",
	}
}

// Store groups the DynamoDB-backed stores.
type Store struct {
	api    API
	tables Tables
}

func New(api API, tables Tables) *Store {
	return &Store{api: api, tables: tables}
}

func (s *Store) Stores() ports.Stores {
	return ports.Stores{
		Water: &table[core.WaterRecord]{api: s.api, name: s.tables.Water, utility: core.Water,
			setID: func(r core.WaterRecord, id string) core.WaterRecord { r.ID = id; return r }},
		Electricity: &table[core.ElectricityRecord]{api: s.api, name: s.tables.Electricity, utility: core.Electricity,
			setID: func(r core.ElectricityRecord, id string) core.ElectricityRecord { r.ID = id; return r }},
		Internet: &table[core.InternetRecord]{api: s.api, name: s.tables.Internet, utility: core.Internet,
			setID: func(r core.InternetRecord, id string) core.InternetRecord { r.ID = id; return r }},
		Users: s,
		KV:    s,
	}
}

// Ping checks that the water table is reachable.
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.api.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(s.tables.Water)})
	return err
}

func (s *Store) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	if _, err := s.UserByEmail(ctx, u.Email); err == nil {
		return core.User{}, fmt.Errorf("user %s: %w", u.Email, ports.ErrConflict)
	} else if !errors.Is(err, ports.ErrNotFound) {
		return core.User{}, err
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	av, err := attributevalue.MarshalMap(u)
	if err != nil {
		return core.User{}, fmt.Errorf("marshal user: %w", err)
	}
	_, err = s.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(s.tables.Users),
		Item:                     av,
		ConditionExpression:      aws.String("attribute_not_exists(#id)"),
		ExpressionAttributeNames: map[string]string{"#id": "id"},
	})
	if isConditionFailed(err) {
		return core.User{}, fmt.Errorf("user %s: %w", u.ID, ports.ErrConflict)
	}
	if err != nil {
		return core.User{}, fmt.Errorf("put user: %w", err)
	}
	return u, nil
}

func (s *Store) UpdateUser(ctx context.Context, u core.User) error {
	av, err := attributevalue.MarshalMap(u)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}
	_, err = s.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(s.tables.Users),
		Item:                     av,
		ConditionExpression:      aws.String("attribute_exists(#id)"),
		ExpressionAttributeNames: map[string]string{"#id": "id"},
	})
	if isConditionFailed(err) {
		return ports.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update user %s: %w", u.ID, err)
	}
	return nil
}

func (s *Store) UserByID(ctx context.Context, id string) (core.User, error) {
	out, err := s.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.tables.Users),
		Key:            idKey(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return core.User{}, fmt.Errorf("get user %s: %w", id, err)
	}
	if len(out.Item) == 0 {
		return core.User{}, ports.ErrNotFound
	}
	var u core.User
	if err := attributevalue.UnmarshalMap(out.Item, &u); err != nil {
		return core.User{}, fmt.Errorf("unmarshal user: %w", err)
	}
	return u, nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (core.User, error) {
	users, err := s.ListUsers(ctx)
	if err != nil {
		return core.User{}, err
	}
	for _, u := range users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return core.User{}, ports.ErrNotFound
}

func (s *Store) ListUsers(ctx context.Context) ([]core.User, error) {
	return scanAll[core.User](ctx, s.api, s.tables.Users)
}

type kvItem struct {
	ID    string `dynamodbav:"id"`
	Value []byte `dynamodbav:"value"`
}

func (s *Store) GetValue(ctx context.Context, key string) ([]byte, error) {
	out, err := s.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tables.KV),
		Key:       idKey(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	if len(out.Item) == 0 {
		return nil, ports.ErrNotFound
	}
	var it kvItem
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return it.Value, nil
}

func (s *Store) PutValue(ctx context.Context, key string, value []byte) error {
	av, err := attributevalue.MarshalMap(kvItem{ID: key, Value: value})
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if _, err := s.api.PutItem(ctx, &dynamodb.PutItemInput{TableName: aws.String(s.tables.KV), Item: av}); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}
