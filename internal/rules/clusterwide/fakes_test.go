package clusterwide

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/aws-sdk-go-v2/service/eks"
	ekstypes "github.com/aws/aws-sdk-go-v2/service/eks/types"
)

var errThrottled = errors.New("throttled")

type fakeEKS struct {
	cluster      *ekstypes.Cluster
	describeErr  error
	versionPages [][]ekstypes.ClusterVersionInformation
	associations []ekstypes.PodIdentityAssociationSummary

	listInput *eks.ListPodIdentityAssociationsInput
}

func (f *fakeEKS) DescribeCluster(_ context.Context, in *eks.DescribeClusterInput, _ ...func(*eks.Options)) (*eks.DescribeClusterOutput, error) {
	if f.describeErr != nil {
		return nil, f.describeErr
	}
	return &eks.DescribeClusterOutput{Cluster: f.cluster}, nil
}

func (f *fakeEKS) DescribeClusterVersions(_ context.Context, in *eks.DescribeClusterVersionsInput, _ ...func(*eks.Options)) (*eks.DescribeClusterVersionsOutput, error) {
	page := 0
	if in.NextToken != nil {
		page = int(aws.ToString(in.NextToken)[0] - '0')
	}
	out := &eks.DescribeClusterVersionsOutput{}
	if page < len(f.versionPages) {
		out.ClusterVersions = f.versionPages[page]
	}
	if page+1 < len(f.versionPages) {
		out.NextToken = aws.String(string(rune('0' + page + 1)))
	}
	return out, nil
}

func (f *fakeEKS) ListPodIdentityAssociations(_ context.Context, in *eks.ListPodIdentityAssociationsInput, _ ...func(*eks.Options)) (*eks.ListPodIdentityAssociationsOutput, error) {
	f.listInput = in
	return &eks.ListPodIdentityAssociationsOutput{Associations: f.associations}, nil
}

type fakeEC2 struct {
	instances []ec2types.Instance
	err       error

	input *ec2.DescribeInstancesInput
}

func (f *fakeEC2) DescribeInstances(_ context.Context, in *ec2.DescribeInstancesInput, _ ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error) {
	f.input = in
	if f.err != nil {
		return nil, f.err
	}
	return &ec2.DescribeInstancesOutput{
		Reservations: []ec2types.Reservation{{Instances: f.instances}},
	}, nil
}

func instance(id string, hops int32, tokens ec2types.HttpTokensState) ec2types.Instance {
	return ec2types.Instance{
		InstanceId: aws.String(id),
		MetadataOptions: &ec2types.InstanceMetadataOptionsResponse{
			HttpPutResponseHopLimit: aws.Int32(hops),
			HttpTokens:              tokens,
		},
	}
}

func versionInfo(v string, status ekstypes.VersionStatus) ekstypes.ClusterVersionInformation {
	return ekstypes.ClusterVersionInformation{ClusterVersion: aws.String(v), VersionStatus: status}
}
