package clusterwide

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/aws-sdk-go-v2/service/eks"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/asjarre/hardeneks/internal/model"
	"github.com/asjarre/hardeneks/internal/rules"
	"github.com/asjarre/hardeneks/internal/snapshot"
)

const (
	awsNodeNamespace = "kube-system"
	awsNodeName      = "aws-node"
	irsaAnnotation   = "eks.amazonaws.com/role-arn"
)

type endpointPublicAccess struct {
	rules.Base
	deps rules.Deps
}

func newEndpointPublicAccess(d rules.Deps) rules.ClusterRule {
	return &endpointPublicAccess{rules.NewBase(meta(
		pillarSecurity, sectionIAM, "check_endpoint_public_access",
		"EKS Cluster Endpoint is not Private",
		"https://aws.github.io/aws-eks-best-practices/security/docs/iam/#make-the-eks-cluster-endpoint-private",
	)), d}
}

func (r *endpointPublicAccess) Check(ctx context.Context, s *snapshot.Cluster) (model.Finding, error) {
	if r.deps.EKS == nil {
		return model.Finding{}, rules.MissingCapability("eks client")
	}
	out, err := r.deps.EKS.DescribeCluster(ctx, &eks.DescribeClusterInput{Name: aws.String(s.Cluster)})
	if err != nil {
		return model.Finding{}, fmt.Errorf("describe cluster %s: %w", s.Cluster, err)
	}
	var offenders []string
	if out.Cluster != nil && out.Cluster.ResourcesVpcConfig != nil && out.Cluster.ResourcesVpcConfig.EndpointPublicAccess {
		offenders = append(offenders, s.Cluster)
	}
	return rules.Result(r.Meta(), "Cluster Endpoint", "", offenders), nil
}

type instanceProfileAccess struct {
	rules.Base
	deps rules.Deps
}

func newInstanceProfileAccess(d rules.Deps) rules.ClusterRule {
	return &instanceProfileAccess{rules.NewBase(meta(
		pillarSecurity, sectionIAM, "check_access_to_instance_profile",
		"Restrict access to the instance profile assigned to nodes",
		"https://aws.github.io/aws-eks-best-practices/security/docs/iam/#when-your-application-needs-access-to-imds-use-imdsv2-and-increase-the-hop-limit-on-ec2-instances-to-2",
	)), d}
}

// Check lists the cluster's nodes whose metadata service allows more than one
// hop or does not require IMDSv2 tokens.
func (r *instanceProfileAccess) Check(ctx context.Context, s *snapshot.Cluster) (model.Finding, error) {
	if r.deps.EC2 == nil {
		return model.Finding{}, rules.MissingCapability("ec2 client")
	}
	in := &ec2.DescribeInstancesInput{
		Filters: []ec2types.Filter{{
			Name:   aws.String("tag:eks:cluster-name"),
			Values: []string{s.Cluster},
		}},
	}
	var offenders []string
	p := ec2.NewDescribeInstancesPaginator(r.deps.EC2, in)
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return model.Finding{}, fmt.Errorf("describe instances: %w", err)
		}
		for _, res := range page.Reservations {
			for _, inst := range res.Instances {
				if exposesInstanceProfile(inst.MetadataOptions) {
					offenders = append(offenders, aws.ToString(inst.InstanceId))
				}
			}
		}
	}
	return rules.Result(r.Meta(), "Instance", "", offenders), nil
}

func exposesInstanceProfile(opts *ec2types.InstanceMetadataOptionsResponse) bool {
	if opts == nil {
		return true
	}
	return aws.ToInt32(opts.HttpPutResponseHopLimit) != 1 || opts.HttpTokens != ec2types.HttpTokensStateRequired
}

type awsNodeServiceAccount struct {
	rules.Base
	deps rules.Deps
}

func newAWSNodeServiceAccount(d rules.Deps) rules.ClusterRule {
	return &awsNodeServiceAccount{rules.NewBase(meta(
		pillarSecurity, sectionIAM, "check_aws_node_daemonset_service_account",
		"Update the aws-node daemonset to use IRSA or EKS Pod Identity.",
		"https://aws.github.io/aws-eks-best-practices/security/docs/iam/#update-the-aws-node-daemonset-to-use-irsa",
	)), d}
}

// Check passes when the aws-node service account carries an IRSA role or
// has an EKS Pod Identity association. Clusters without aws-node pass.
func (r *awsNodeServiceAccount) Check(ctx context.Context, s *snapshot.Cluster) (model.Finding, error) {
	if r.deps.Kube == nil {
		return model.Finding{}, rules.MissingCapability("kubernetes client")
	}
	if r.deps.EKS == nil {
		return model.Finding{}, rules.MissingCapability("eks client")
	}
	ds, err := r.deps.Kube.AppsV1().DaemonSets(awsNodeNamespace).Get(ctx, awsNodeName, metav1.GetOptions{})
	if apierrors.IsNotFound(err) {
		return rules.Pass(r.Meta(), "DaemonSet", awsNodeNamespace), nil
	}
	if err != nil {
		return model.Finding{}, fmt.Errorf("get daemonset %s/%s: %w", awsNodeNamespace, awsNodeName, err)
	}
	saName := ds.Spec.Template.Spec.ServiceAccountName
	if saName == "" {
		saName = "default"
	}
	sa, err := r.deps.Kube.CoreV1().ServiceAccounts(awsNodeNamespace).Get(ctx, saName, metav1.GetOptions{})
	if err != nil {
		return model.Finding{}, fmt.Errorf("get serviceaccount %s/%s: %w", awsNodeNamespace, saName, err)
	}
	if sa.Annotations[irsaAnnotation] != "" {
		return rules.Pass(r.Meta(), "ServiceAccount", awsNodeNamespace), nil
	}
	out, err := r.deps.EKS.ListPodIdentityAssociations(ctx, &eks.ListPodIdentityAssociationsInput{
		ClusterName:    aws.String(s.Cluster),
		Namespace:      aws.String(awsNodeNamespace),
		ServiceAccount: aws.String(saName),
	})
	if err != nil {
		return model.Finding{}, fmt.Errorf("list pod identity associations: %w", err)
	}
	if len(out.Associations) > 0 {
		return rules.Pass(r.Meta(), "ServiceAccount", awsNodeNamespace), nil
	}
	return rules.Fail(r.Meta(), "ServiceAccount", awsNodeNamespace, []string{saName}), nil
}
