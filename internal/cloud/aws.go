// Package cloud wires the AWS SDK clients that cloud-aware rules call.
// Rules depend on the narrow interfaces below so tests can swap in fakes.
package cloud

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/eks"
)

// EKSAPI is the subset of the EKS client used by rules.
type EKSAPI interface {
	DescribeCluster(ctx context.Context, in *eks.DescribeClusterInput, optFns ...func(*eks.Options)) (*eks.DescribeClusterOutput, error)
	DescribeClusterVersions(ctx context.Context, in *eks.DescribeClusterVersionsInput, optFns ...func(*eks.Options)) (*eks.DescribeClusterVersionsOutput, error)
	ListPodIdentityAssociations(ctx context.Context, in *eks.ListPodIdentityAssociationsInput, optFns ...func(*eks.Options)) (*eks.ListPodIdentityAssociationsOutput, error)
}

// EC2API is the subset of the EC2 client used by rules.
type EC2API interface {
	DescribeInstances(ctx context.Context, in *ec2.DescribeInstancesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error)
}

// Clients bundles the AWS clients for one region.
type Clients struct {
	Region string
	EKS    EKSAPI
	EC2    EC2API
}

// NewClients loads the default AWS configuration chain for region.
// Retries are disabled: a failed call fails the rule that made it.
func NewClients(ctx context.Context, region string) (*Clients, error) {
	opts := []func(*awscfg.LoadOptions) error{
		awscfg.WithRetryMaxAttempts(1),
	}
	if region != "" {
		opts = append(opts, awscfg.WithRegion(region))
	}
	cfg, err := awscfg.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("aws config load: %w", err)
	}
	if cfg.Region == "" {
		return nil, fmt.Errorf("aws config load: no region configured (set --region or AWS_REGION)")
	}
	return FromConfig(cfg), nil
}

// FromConfig builds clients from an existing SDK configuration.
func FromConfig(cfg aws.Config) *Clients {
	return &Clients{
		Region: cfg.Region,
		EKS:    eks.NewFromConfig(cfg),
		EC2:    ec2.NewFromConfig(cfg),
	}
}
