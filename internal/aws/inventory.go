package aws

import (
	"context"
	"fmt"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/aws-sdk-go-v2/service/rds"

	"github.com/ppiankov/costspectre/internal/audit"
)

// EC2API is the minimal interface for the EC2 describe operations used by the inventory.
type EC2API interface {
	DescribeInstances(ctx context.Context, input *ec2.DescribeInstancesInput, opts ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error)
	DescribeSnapshots(ctx context.Context, input *ec2.DescribeSnapshotsInput, opts ...func(*ec2.Options)) (*ec2.DescribeSnapshotsOutput, error)
	DescribeVolumes(ctx context.Context, input *ec2.DescribeVolumesInput, opts ...func(*ec2.Options)) (*ec2.DescribeVolumesOutput, error)
}

// RDSAPI is the minimal interface for RDS operations.
type RDSAPI interface {
	DescribeDBInstances(ctx context.Context, input *rds.DescribeDBInstancesInput, opts ...func(*rds.Options)) (*rds.DescribeDBInstancesOutput, error)
}

// Inventory lists account resources and converts them to audit records.
type Inventory struct {
	ec2 EC2API
	rds RDSAPI
}

// NewInventory creates an inventory over the given clients.
func NewInventory(ec2Client EC2API, rdsClient RDSAPI) *Inventory {
	return &Inventory{ec2: ec2Client, rds: rdsClient}
}

// ListRunningCompute returns every instance in the running state.
func (inv *Inventory) ListRunningCompute(ctx context.Context) ([]audit.ResourceRecord, error) {
	var records []audit.ResourceRecord
	paginator := ec2.NewDescribeInstancesPaginator(inv.ec2, &ec2.DescribeInstancesInput{
		Filters: []ec2types.Filter{
			{
				Name:   awssdk.String("instance-state-name"),
				Values: []string{string(ec2types.InstanceStateNameRunning)},
			},
		},
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("describe instances: %w", err)
		}
		for _, res := range page.Reservations {
			for _, inst := range res.Instances {
				rec := audit.ResourceRecord{
					ID:    deref(inst.InstanceId),
					Type:  audit.ResourceCompute,
					Class: string(inst.InstanceType),
					Tags:  ec2TagsToMap(inst.Tags),
				}
				if inst.State != nil {
					rec.State = string(inst.State.Name)
				}
				if inst.LaunchTime != nil {
					rec.CreatedAt = inst.LaunchTime.UTC()
				}
				records = append(records, rec)
			}
		}
	}
	return records, nil
}

// ListDatabases returns every RDS instance regardless of status.
func (inv *Inventory) ListDatabases(ctx context.Context) ([]audit.ResourceRecord, error) {
	var records []audit.ResourceRecord
	paginator := rds.NewDescribeDBInstancesPaginator(inv.rds, &rds.DescribeDBInstancesInput{})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("describe DB instances: %w", err)
		}
		for _, db := range page.DBInstances {
			rec := audit.ResourceRecord{
				ID:      deref(db.DBInstanceIdentifier),
				Type:    audit.ResourceDatabase,
				Class:   deref(db.DBInstanceClass),
				State:   deref(db.DBInstanceStatus),
				Engine:  deref(db.Engine),
				SizeGiB: int(derefInt32(db.AllocatedStorage)),
				Tags:    rdsTagsToMap(db.TagList),
			}
			if db.InstanceCreateTime != nil {
				rec.CreatedAt = db.InstanceCreateTime.UTC()
			}
			records = append(records, rec)
		}
	}
	return records, nil
}

// ListOwnedSnapshots returns the snapshots owned by the calling account.
func (inv *Inventory) ListOwnedSnapshots(ctx context.Context) ([]audit.ResourceRecord, error) {
	var records []audit.ResourceRecord
	paginator := ec2.NewDescribeSnapshotsPaginator(inv.ec2, &ec2.DescribeSnapshotsInput{
		OwnerIds: []string{"self"},
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("describe snapshots: %w", err)
		}
		for _, snap := range page.Snapshots {
			records = append(records, audit.ResourceRecord{
				ID:        deref(snap.SnapshotId),
				Type:      audit.ResourceSnapshot,
				State:     string(snap.State),
				SizeGiB:   int(derefInt32(snap.VolumeSize)),
				CreatedAt: utcOrZero(snap.StartTime),
				Tags:      ec2TagsToMap(snap.Tags),
			})
		}
	}
	return records, nil
}

// ListVolumesByState returns volumes whose status equals state.
func (inv *Inventory) ListVolumesByState(ctx context.Context, state string) ([]audit.ResourceRecord, error) {
	var records []audit.ResourceRecord
	paginator := ec2.NewDescribeVolumesPaginator(inv.ec2, &ec2.DescribeVolumesInput{
		Filters: []ec2types.Filter{
			{
				Name:   awssdk.String("status"),
				Values: []string{state},
			},
		},
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("describe volumes: %w", err)
		}
		for _, vol := range page.Volumes {
			records = append(records, audit.ResourceRecord{
				ID:        deref(vol.VolumeId),
				Type:      audit.ResourceVolume,
				Class:     string(vol.VolumeType),
				State:     string(vol.State),
				SizeGiB:   int(derefInt32(vol.Size)),
				CreatedAt: utcOrZero(vol.CreateTime),
				Tags:      ec2TagsToMap(vol.Tags),
			})
		}
	}
	return records, nil
}

func utcOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return t.UTC()
}
