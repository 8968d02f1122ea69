package token

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const revocationPartition = "REVOKED"

// revocationItem is the single-table layout for revoked tokens. The sort
// key is a SHA-256 of the raw token so bearer credentials never land in a
// table; the ttl attribute lets DynamoDB expire entries on its own.
type revocationItem struct {
	PK        string `dynamodbav:"pk"`
	SK        string `dynamodbav:"sk"`
	TTL       int64  `dynamodbav:"ttl"`
	CreatedAt int64  `dynamodbav:"createdAt"`
}

// DynamoRevocationStore is the multi-instance RevocationStore: logout on
// one instance is visible to every other one sharing the table.
type DynamoRevocationStore struct {
	client    *dynamodb.Client
	tableName string
}

// NewDynamoClient loads AWS configuration for the given region and returns
// a DynamoDB client.
func NewDynamoClient(region string) (*dynamodb.Client, error) {
	cfg, err := awsConfig.LoadDefaultConfig(context.TODO(), awsConfig.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return dynamodb.NewFromConfig(cfg), nil
}

func NewDynamoRevocationStore(client *dynamodb.Client, tableName string) (*DynamoRevocationStore, error) {
	s := &DynamoRevocationStore{client: client, tableName: tableName}
	if err := s.ensureTable(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *DynamoRevocationStore) ensureTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(s.tableName),
	})
	if err == nil {
		return nil
	}
	var notFound *types.ResourceNotFoundException
	if !errors.As(err, &notFound) {
		return err
	}

	_, err = s.client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(s.tableName),
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String("pk"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String("sk"), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("pk"), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String("sk"), KeyType: types.KeyTypeRange},
		},
		BillingMode: types.BillingModePayPerRequest,
	})
	if err != nil {
		return err
	}

	waiter := dynamodb.NewTableExistsWaiter(s.client)
	if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(s.tableName),
	}, 10*time.Second); err != nil {
		return err
	}

	// TTL enablement is advisory: Sweep covers deployments where the
	// attribute cannot be enabled (DynamoDB Local ignores it anyway).
	_, _ = s.client.UpdateTimeToLive(ctx, &dynamodb.UpdateTimeToLiveInput{
		TableName: aws.String(s.tableName),
		TimeToLiveSpecification: &types.TimeToLiveSpecification{
			AttributeName: aws.String("ttl"),
			Enabled:       aws.Bool(true),
		},
	})
	return nil
}

func tokenKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func (s *DynamoRevocationStore) Add(token string, expiresAt time.Time) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	item, err := attributevalue.MarshalMap(revocationItem{
		PK:        revocationPartition,
		SK:        tokenKey(token),
		TTL:       expiresAt.Unix(),
		CreatedAt: time.Now().Unix(),
	})
	if err != nil {
		return err
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	})
	return err
}

func (s *DynamoRevocationStore) Contains(token string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	key, err := attributevalue.MarshalMap(map[string]string{
		"pk": revocationPartition,
		"sk": tokenKey(token),
	})
	if err != nil {
		return false, err
	}
	output, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key:       key,
	})
	if err != nil {
		return false, err
	}
	return output.Item != nil, nil
}

func (s *DynamoRevocationStore) Sweep(now time.Time) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	keyCondition := "pk = :pk"
	filter := "#ttl < :now"
	query := &dynamodb.QueryInput{
		TableName:                aws.String(s.tableName),
		KeyConditionExpression:   aws.String(keyCondition),
		FilterExpression:         aws.String(filter),
		ExpressionAttributeNames: map[string]string{"#ttl": "ttl"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":  &types.AttributeValueMemberS{Value: revocationPartition},
			":now": &types.AttributeValueMemberN{Value: strconv.FormatInt(now.Unix(), 10)},
		},
	}

	output, err := s.client.Query(ctx, query)
	if err != nil {
		return err
	}
	for _, item := range output.Items {
		var entry revocationItem
		if err := attributevalue.UnmarshalMap(item, &entry); err != nil {
			return err
		}
		key, err := attributevalue.MarshalMap(map[string]string{"pk": entry.PK, "sk": entry.SK})
		if err != nil {
			return err
		}
		if _, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: aws.String(s.tableName),
			Key:       key,
		}); err != nil {
			return err
		}
	}
	return nil
}
