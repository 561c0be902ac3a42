package dynamo

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"cuentas/internal/core"
	"cuentas/internal/ports"
)

// fakeAPI is a map-backed stand-in that understands the two condition
// expressions the store issues.
type fakeAPI struct {
	mu     sync.Mutex
	tables map[string]map[string]map[string]types.AttributeValue
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{tables: map[string]map[string]map[string]types.AttributeValue{}}
}

func (f *fakeAPI) table(name string) map[string]map[string]types.AttributeValue {
	t, ok := f.tables[name]
	if !ok {
		t = map[string]map[string]types.AttributeValue{}
		f.tables[name] = t
	}
	return t
}

func keyOf(item map[string]types.AttributeValue) string {
	return item["id"].(*types.AttributeValueMemberS).Value
}

func (f *fakeAPI) check(t map[string]map[string]types.AttributeValue, id string, cond *string) error {
	if cond == nil {
		return nil
	}
	_, exists := t[id]
	switch aws.ToString(cond) {
	case "attribute_not_exists(#id)":
		if exists {
			return &types.ConditionalCheckFailedException{}
		}
	case "attribute_exists(#id)":
		if !exists {
			return &types.ConditionalCheckFailedException{}
		}
	}
	return nil
}

func (f *fakeAPI) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := f.table(aws.ToString(in.TableName))
	id := keyOf(in.Item)
	if err := f.check(t, id, in.ConditionExpression); err != nil {
		return nil, err
	}
	t[id] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeAPI) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &dynamodb.GetItemOutput{Item: f.table(aws.ToString(in.TableName))[keyOf(in.Key)]}, nil
}

func (f *fakeAPI) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := f.table(aws.ToString(in.TableName))
	id := keyOf(in.Key)
	if err := f.check(t, id, in.ConditionExpression); err != nil {
		return nil, err
	}
	delete(t, id)
	return &dynamodb.DeleteItemOutput{}, nil
}

func (f *fakeAPI) Scan(_ context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var items []map[string]types.AttributeValue
	for _, it := range f.table(aws.ToString(in.TableName)) {
		items = append(items, it)
	}
	return &dynamodb.ScanOutput{Items: items}, nil
}

func (f *fakeAPI) DescribeTable(context.Context, *dynamodb.DescribeTableInput, ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	return &dynamodb.DescribeTableOutput{}, nil
}

func TestRecordTableLifecycle(t *testing.T) {
	ctx := context.Background()
	st := New(newFakeAPI(), DefaultTables("test_")).Stores()

	rec := core.ElectricityRecord{
		Period: core.Period{Year: 2024, Month: 6}, TotalInvoiced: 10000, KWhConsumption: 50,
		PreviousMeter: 1000, CurrentMeter: 1120, Discount: 500, Status: core.Pending,
	}
	rec.Apply()

	created, err := st.Electricity.Create(ctx, rec)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := st.Electricity.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != created {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, created)
	}

	if _, err := st.Electricity.Create(ctx, rec); !errors.Is(err, core.ErrDuplicatePeriod) {
		t.Fatalf("expected duplicate period, got %v", err)
	}

	if err := st.Electricity.Update(ctx, core.ElectricityRecord{ID: "nope", Period: core.Period{Year: 2020}}); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on update, got %v", err)
	}
	if err := st.Electricity.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := st.Electricity.Delete(ctx, created.ID); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestUsersAndValues(t *testing.T) {
	ctx := context.Background()
	s := New(newFakeAPI(), DefaultTables(""))

	if _, err := s.CreateUser(ctx, core.User{Email: "ana@example.com", Role: core.RoleEditor, Status: core.UserActive}); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if _, err := s.CreateUser(ctx, core.User{Email: "Ana@example.com"}); !errors.Is(err, ports.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	if err := s.PutValue(ctx, "fixedValues", []byte("x")); err != nil {
		t.Fatal(err)
	}
	v, err := s.GetValue(ctx, "fixedValues")
	if err != nil || string(v) != "x" {
		t.Fatalf("got %q (%v)", v, err)
	}
	if _, err := s.GetValue(ctx, "missing"); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
