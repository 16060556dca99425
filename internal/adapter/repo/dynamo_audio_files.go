package repo

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"voicehost/internal/domain"
)

type dynamoAudioFileItem struct {
	PropertyID        string   `dynamodbav:"property_id"`
	ID                string   `dynamodbav:"id"`
	ContentTemplateID string   `dynamodbav:"content_template_id"`
	FileURL           string   `dynamodbav:"file_url"`
	FilePath          string   `dynamodbav:"file_path"`
	Duration          *float64 `dynamodbav:"duration,omitempty"`
	SamplingRate      *float64 `dynamodbav:"sampling_rate,omitempty"`
	VoiceStyle        string   `dynamodbav:"voice_style"`
	Temperature       float64  `dynamodbav:"temperature"`
	PredictionID      string   `dynamodbav:"prediction_id"`
	CreatedAt         string   `dynamodbav:"created_at"`
}

// DynamoAudioFileRepository implements domain.AudioFileStore on a DynamoDB
// table keyed by property_id (partition) and id (sort).
type DynamoAudioFileRepository struct {
	svc    dynamodbiface.DynamoDBAPI
	table  string
	logger zerolog.Logger
	now    func() time.Time
}

func NewDynamoAudioFileRepository(svc dynamodbiface.DynamoDBAPI, table string, logger zerolog.Logger) *DynamoAudioFileRepository {
	return &DynamoAudioFileRepository{svc: svc, table: table, logger: logger, now: time.Now}
}

func (r *DynamoAudioFileRepository) InsertAudioFile(ctx context.Context, rec domain.AudioFileRecord) (*domain.AudioFileRecord, error) {
	out := rec
	out.ID = uuid.NewString()
	out.CreatedAt = r.now().UTC()

	av, err := dynamodbattribute.MarshalMap(toDynamoItem(out))
	if err != nil {
		return nil, fmt.Errorf("marshal audio file item: %w", err)
	}
	_, err = r.svc.PutItemWithContext(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.table),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	if err != nil {
		r.logger.Error().Err(err).
			Str("table", r.table).
			Str("file_path", out.FilePath).
			Msg("dynamo: put audio file failed")
		return nil, fmt.Errorf("put audio file item: %w", err)
	}
	return &out, nil
}

func (r *DynamoAudioFileRepository) ListAudioFiles(ctx context.Context, propertyID string) ([]domain.AudioFileRecord, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(r.table),
		KeyConditionExpression: aws.String("property_id = :p"),
		ExpressionAttributeValues: map[string]*dynamodb.AttributeValue{
			":p": {S: aws.String(propertyID)},
		},
	}
	var files []domain.AudioFileRecord
	for {
		out, err := r.svc.QueryWithContext(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("query audio files: %w", err)
		}
		var items []dynamoAudioFileItem
		if err := dynamodbattribute.UnmarshalListOfMaps(out.Items, &items); err != nil {
			return nil, fmt.Errorf("unmarshal audio files: %w", err)
		}
		for _, item := range items {
			files = append(files, fromDynamoItem(item))
		}
		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
	sort.SliceStable(files, func(i, j int) bool {
		return files[i].CreatedAt.After(files[j].CreatedAt)
	})
	return files, nil
}

func toDynamoItem(rec domain.AudioFileRecord) dynamoAudioFileItem {
	return dynamoAudioFileItem{
		PropertyID:        rec.PropertyID,
		ID:                rec.ID,
		ContentTemplateID: rec.ContentTemplateID,
		FileURL:           rec.FileURL,
		FilePath:          rec.FilePath,
		Duration:          rec.Duration,
		SamplingRate:      rec.SamplingRate,
		VoiceStyle:        rec.VoiceStyle,
		Temperature:       rec.Temperature,
		PredictionID:      rec.PredictionID,
		CreatedAt:         rec.CreatedAt.Format(time.RFC3339Nano),
	}
}

func fromDynamoItem(item dynamoAudioFileItem) domain.AudioFileRecord {
	created, _ := time.Parse(time.RFC3339Nano, item.CreatedAt)
	return domain.AudioFileRecord{
		ID:                item.ID,
		ContentTemplateID: item.ContentTemplateID,
		PropertyID:        item.PropertyID,
		FileURL:           item.FileURL,
		FilePath:          item.FilePath,
		Duration:          item.Duration,
		SamplingRate:      item.SamplingRate,
		VoiceStyle:        item.VoiceStyle,
		Temperature:       item.Temperature,
		PredictionID:      item.PredictionID,
		CreatedAt:         created,
	}
}

var _ domain.AudioFileStore = (*DynamoAudioFileRepository)(nil)
