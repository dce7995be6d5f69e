package core

import (
	"context"
	"fmt"
	"sort"

	"jaguar-gen/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoDBClient defines the interface needed for scanning.
type DynamoDBClient interface {
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// DynamoDBDataFetcher reads a dataset by scanning the DynamoDB table of the same name.
type DynamoDBDataFetcher struct {
	Client DynamoDBClient
}

// NewDynamoDBDataFetcher creates a new fetcher with the given AWS config.
func NewDynamoDBDataFetcher(cfg aws.Config) *DynamoDBDataFetcher {
	return &DynamoDBDataFetcher{
		Client: dynamodb.NewFromConfig(cfg),
	}
}

// Fetch scans the dataset's table. Parameters naming a declared column become an
// equality filter on the scan. Without declared columns the dataset takes the
// union of the item attributes in name order, typed from the first value seen.
func (f *DynamoDBDataFetcher) Fetch(ctx context.Context, def *config.DatasetConfig, params map[string]string) (*Dataset, error) {
	tableName := def.TableName()
	declared := ColumnsFromConfig(def.Columns)

	input := &dynamodb.ScanInput{TableName: aws.String(tableName)}
	if filter, names, values := scanFilter(declared, params); filter != "" {
		input.FilterExpression = aws.String(filter)
		input.ExpressionAttributeNames = names
		input.ExpressionAttributeValues = values
	}

	paginator := dynamodb.NewScanPaginator(f.Client, input)
	var items []map[string]interface{}
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to scan table %s: %w", tableName, err)
		}

		var pageItems []map[string]interface{}
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &pageItems); err != nil {
			return nil, fmt.Errorf("failed to unmarshal items: %w", err)
		}
		items = append(items, pageItems...)
	}

	columns := declared
	if len(columns) == 0 {
		columns = inferColumns(items)
	}
	ds := NewDataset(def.Name, columns...)
	for _, item := range items {
		values := make([]interface{}, len(columns))
		for i, c := range columns {
			values[i] = ConvertValue(c.Type, item[c.Name])
		}
		if err := ds.AddRow(values...); err != nil {
			return nil, err
		}
	}
	return ds, nil
}

// scanFilter builds "#k0 = :v0 AND ..." over the parameters that name a declared
// column, in column order. Values are compared as strings.
func scanFilter(columns []Column, params map[string]string) (string, map[string]string, map[string]types.AttributeValue) {
	var expr string
	names := map[string]string{}
	values := map[string]types.AttributeValue{}
	idx := 0
	for _, c := range columns {
		v, ok := params[c.Name]
		if !ok {
			continue
		}
		if idx > 0 {
			expr += " AND "
		}
		// placeholders avoid clashes with reserved words
		kName := fmt.Sprintf("#k%d", idx)
		vName := fmt.Sprintf(":v%d", idx)
		expr += fmt.Sprintf("%s = %s", kName, vName)
		names[kName] = c.Name
		values[vName] = &types.AttributeValueMemberS{Value: v}
		idx++
	}
	return expr, names, values
}

func inferColumns(items []map[string]interface{}) []Column {
	kinds := map[string]ColumnType{}
	for _, item := range items {
		for k, v := range item {
			if t, seen := kinds[k]; seen && t != ColumnOther {
				continue
			}
			kinds[k] = inferColumnType(v)
		}
	}
	names := make([]string, 0, len(kinds))
	for k := range kinds {
		names = append(names, k)
	}
	sort.Strings(names)

	columns := make([]Column, len(names))
	for i, name := range names {
		columns[i] = Column{Name: name, Type: kinds[name]}
	}
	return columns
}

func inferColumnType(v interface{}) ColumnType {
	switch v.(type) {
	case string:
		return ColumnText
	case float64, int, int64:
		return ColumnNumber
	case bool:
		return ColumnBoolean
	default:
		return ColumnOther
	}
}
